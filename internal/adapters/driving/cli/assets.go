package cli

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/schedmaker/internal/core/domain"
)

// clearValue removes an image when given instead of a file or URL.
const clearValue = "none"

// assetFromArg turns a command line image argument into an asset: an http(s)
// URL is kept as a link, anything else is read as an image file.
func assetFromArg(arg string) (domain.Asset, error) {
	switch {
	case arg == "" || arg == clearValue:
		return domain.EmptyAsset(), nil
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return domain.ExternalAsset(arg), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return domain.Asset{}, fmt.Errorf("reading image: %w", err)
	}
	mediaType := detectMediaType(arg, data)
	if !strings.HasPrefix(mediaType, "image/") {
		return domain.Asset{}, fmt.Errorf("%w: %s is %s, not an image", domain.ErrInvalidInput, arg, mediaType)
	}
	return domain.RawAsset(mediaType, data), nil
}

// detectMediaType prefers the file extension and falls back to sniffing.
// Content that sniffs as an image wins over a non-image extension.
func detectMediaType(path string, data []byte) string {
	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			if !isImage(mediaType) && isImage(sniffed) {
				return sniffed
			}
			return mediaType
		}
	}
	return sniffed
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}

// parseDay accepts a day key ("mon") or name ("Monday").
func parseDay(arg string) (domain.DayKey, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	for _, key := range domain.AllDayKeys() {
		if arg == string(key) || arg == strings.ToLower(key.Label()) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: unknown day %q", domain.ErrInvalidInput, arg)
}
