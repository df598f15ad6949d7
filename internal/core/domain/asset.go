package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ReferenceScheme prefixes a reference token: "id:<opaque-id>".
const ReferenceScheme = "id"

const (
	dataScheme   = "data:"
	base64Suffix = ";base64"
)

// AssetKind discriminates the variants of Asset.
type AssetKind int

// Asset variants.
const (
	// AssetEmpty is an unset image field.
	AssetEmpty AssetKind = iota
	// AssetRaw holds the image bytes inline.
	AssetRaw
	// AssetReference points at a blob owned by the persistence layer.
	AssetReference
	// AssetExternal is a URL (or any other value) the persistence layer does not own.
	AssetExternal
)

// String returns the kind name.
func (k AssetKind) String() string {
	switch k {
	case AssetEmpty:
		return "empty"
	case AssetRaw:
		return "raw"
	case AssetReference:
		return "reference"
	case AssetExternal:
		return "external"
	default:
		return unknownDescription
	}
}

// Asset is the value of a binary-capable field.
//
// In JSON it is a single string: "" for empty, a data URL for raw payloads,
// "id:<id>" for references, and anything else verbatim as external.
type Asset struct {
	Kind      AssetKind
	MediaType string
	Data      []byte
	ID        string
	URL       string

	// Text is the data URL a raw asset was parsed from. String returns it
	// unchanged, so payloads survive a save and load in the form given.
	Text string
}

// EmptyAsset returns the empty variant.
func EmptyAsset() Asset {
	return Asset{}
}

// RawAsset wraps an inline payload.
func RawAsset(mediaType string, data []byte) Asset {
	return Asset{Kind: AssetRaw, MediaType: mediaType, Data: data}
}

// ReferenceAsset points at blob id.
func ReferenceAsset(id string) Asset {
	return Asset{Kind: AssetReference, ID: id}
}

// ExternalAsset wraps a value the persistence layer passes through unchanged.
func ExternalAsset(u string) Asset {
	return Asset{Kind: AssetExternal, URL: u}
}

// IsZero reports whether the asset is empty. Used by omitzero.
func (a Asset) IsZero() bool {
	return a.Kind == AssetEmpty
}

// Clone returns a copy that does not share the payload buffer.
func (a Asset) Clone() Asset {
	if a.Data != nil {
		a.Data = bytes.Clone(a.Data)
	}
	return a
}

// Equal reports whether two assets hold the same value.
func (a Asset) Equal(b Asset) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AssetRaw:
		if a.Text == "" && b.Text == "" {
			return a.MediaType == b.MediaType && bytes.Equal(a.Data, b.Data)
		}
		return a.String() == b.String()
	case AssetReference:
		return a.ID == b.ID
	case AssetExternal:
		return a.URL == b.URL
	default:
		return true
	}
}

// String returns the JSON text form of the asset.
func (a Asset) String() string {
	switch a.Kind {
	case AssetRaw:
		if a.Text != "" {
			return a.Text
		}
		return a.canonical()
	case AssetReference:
		return ReferenceScheme + ":" + a.ID
	case AssetExternal:
		return a.URL
	default:
		return ""
	}
}

// OriginalText returns Text when it differs from the base64 data URL that
// MediaType and Data encode to, and "" otherwise.
func (a Asset) OriginalText() string {
	if a.Kind != AssetRaw || a.Text == "" || a.Text == a.canonical() {
		return ""
	}
	return a.Text
}

func (a Asset) canonical() string {
	return dataScheme + a.MediaType + base64Suffix + "," + base64.StdEncoding.EncodeToString(a.Data)
}

// Token returns the reference token for a reference asset, or "".
func (a Asset) Token() string {
	if a.Kind != AssetReference {
		return ""
	}
	return a.String()
}

// ParseAsset classifies the text form of a field value.
// A malformed reference token is an error. Any data URL is accepted as raw;
// its payload is decoded on a best-effort basis and the text is kept in Text.
// Any unrecognised value is external.
func ParseAsset(s string) (Asset, error) {
	switch {
	case s == "":
		return EmptyAsset(), nil
	case strings.HasPrefix(s, ReferenceScheme+":"):
		id := strings.TrimPrefix(s, ReferenceScheme+":")
		if id == "" || strings.ContainsAny(id, " \t\r\n") {
			return Asset{}, fmt.Errorf("%w: malformed reference token %q", ErrInvalidInput, s)
		}
		return ReferenceAsset(id), nil
	case strings.HasPrefix(s, dataScheme):
		return parseDataURL(s), nil
	default:
		return ExternalAsset(s), nil
	}
}

// base64Encodings are tried in order when decoding a data URL payload.
var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// parseDataURL decodes s into MediaType and Data. A payload that cannot be
// decoded is kept as its undecoded bytes.
func parseDataURL(s string) Asset {
	a := Asset{Kind: AssetRaw, Text: s}

	header, body, ok := strings.Cut(strings.TrimPrefix(s, dataScheme), ",")
	if !ok {
		a.Data = []byte(header)
		return a
	}

	if mediaType, isBase64 := strings.CutSuffix(header, base64Suffix); isBase64 {
		a.MediaType = mediaType
		a.Data = []byte(body)
		for _, enc := range base64Encodings {
			if data, err := enc.DecodeString(body); err == nil {
				a.Data = data
				break
			}
		}
		return a
	}

	a.MediaType = header
	a.Data = []byte(body)
	if data, err := url.PathUnescape(body); err == nil {
		a.Data = []byte(data)
	}
	return a
}

// MarshalJSON encodes the asset as its text form.
func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes the text form. null decodes to empty.
func (a *Asset) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = EmptyAsset()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: asset must be a string: %v", ErrSerialization, err)
	}
	parsed, err := ParseAsset(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	*a = parsed
	return nil
}
