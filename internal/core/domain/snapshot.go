package domain

import (
	"strings"
	"time"
)

// ConfigKey is the fallback store key of the persisted document.
// There is one document per installation.
const ConfigKey = "schedule-maker-config"

// SnapshotVersion is the current version of the persisted document format.
const SnapshotVersion = 1

// Snapshot is the envelope written to the fallback store.
type Snapshot struct {
	// Version is the document format version.
	Version int `json:"version"`

	// SavedAt is when the state was serialised.
	SavedAt time.Time `json:"savedAt,omitzero"`

	// State is the configuration tree.
	State ConfigState `json:"state"`
}

// NewSnapshot wraps state in a versioned envelope.
func NewSnapshot(state ConfigState, savedAt time.Time) Snapshot {
	return Snapshot{
		Version: SnapshotVersion,
		SavedAt: savedAt.UTC(),
		State:   state,
	}
}

// SnapshotStateKey is the envelope field holding the configuration tree.
const SnapshotStateKey = "state"

// FieldPath addresses a value in the JSON tree of a Snapshot.
type FieldPath []string

// String returns the dotted form, e.g. "state.heroUrl".
func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// HeroField is the path of the hero image.
func HeroField() FieldPath {
	return FieldPath{SnapshotStateKey, "heroUrl"}
}

// DayLogoField is the path of the logo image for day.
func DayLogoField(day DayKey) FieldPath {
	return FieldPath{SnapshotStateKey, "week", "days", string(day), "logoUrl"}
}

// DayGraphicField is the path of the graphic image for day.
func DayGraphicField(day DayKey) FieldPath {
	return FieldPath{SnapshotStateKey, "week", "days", string(day), "graphicUrl"}
}

// BinaryFields returns the fixed set of binary-capable field paths:
// the hero image plus the logo and graphic of every day.
func BinaryFields() []FieldPath {
	fields := make([]FieldPath, 0, 1+2*7)
	fields = append(fields, HeroField())
	for _, day := range AllDayKeys() {
		fields = append(fields, DayLogoField(day), DayGraphicField(day))
	}
	return fields
}

// BlobRecord is a binary payload stored out of line.
type BlobRecord struct {
	ID        string
	MediaType string
	Payload   []byte
	// Source is the data URL the payload was saved from, when the base64
	// form of MediaType and Payload would not reproduce it.
	Source    string
	CreatedAt time.Time
}

// NewBlobRecord stores asset's payload under id.
func NewBlobRecord(id string, asset Asset, createdAt time.Time) BlobRecord {
	return BlobRecord{
		ID:        id,
		MediaType: asset.MediaType,
		Payload:   asset.Data,
		Source:    asset.OriginalText(),
		CreatedAt: createdAt,
	}
}

// Asset returns the raw asset the record was saved from.
func (b BlobRecord) Asset() Asset {
	a := RawAsset(b.MediaType, b.Payload)
	a.Text = b.Source
	return a
}

// Size returns the payload length in bytes.
func (b BlobRecord) Size() int {
	return len(b.Payload)
}
