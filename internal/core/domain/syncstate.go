package domain

import "time"

// EditionRecord is the per-edition slice of a SyncRecord.
type EditionRecord struct {
	// Tag is the release tag the edition was published under.
	Tag string `json:"tag"`

	// Asset is the uploaded asset filename.
	Asset string `json:"asset"`

	// Size is the artifact size in bytes.
	Size int64 `json:"size"`
}

// SyncRecord is this system's memory of the last version successfully
// published for a product. The Version field only ever names a version
// for which every tracked edition uploaded successfully.
type SyncRecord struct {
	Version  string                    `json:"version"`
	SyncedAt time.Time                 `json:"synced_at"`
	Editions map[Edition]EditionRecord `json:"editions"`
}

// SyncState is the full persisted document: one SyncRecord per product
// display name.
type SyncState struct {
	Products map[string]SyncRecord `json:"products"`
}

// NewSyncState returns an empty state document.
func NewSyncState() *SyncState {
	return &SyncState{Products: make(map[string]SyncRecord)}
}

// Version returns the last synced version for a product key, or the
// empty string when the product has never been synced.
func (s *SyncState) Version(productKey string) string {
	if s == nil || s.Products == nil {
		return ""
	}
	return s.Products[productKey].Version
}

// SetRecord stores or replaces the record for a product key.
func (s *SyncState) SetRecord(productKey string, record SyncRecord) {
	if s.Products == nil {
		s.Products = make(map[string]SyncRecord)
	}
	s.Products[productKey] = record
}
