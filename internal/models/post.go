package models

import (
	"time"
)

// PostState represents the classification lifecycle state of a post
type PostState string

const (
	PostStateUnprocessed PostState = "UNPROCESSED"
	PostStateRelevant    PostState = "RELEVANT"
	PostStateNotRelevant PostState = "NOT_RELEVANT"
	PostStateError       PostState = "ERROR"
)

// Valid reports whether the state is one of the closed set
func (s PostState) Valid() bool {
	switch s {
	case PostStateUnprocessed, PostStateRelevant, PostStateNotRelevant, PostStateError:
		return true
	}
	return false
}

// Terminal reports whether the state ends a post's lifecycle for a run
func (s PostState) Terminal() bool {
	return s.Valid() && s != PostStateUnprocessed
}

// Post represents one discovered article belonging to a Source.
// Link is the dedup key: inserting a post whose link already exists
// anywhere in the store is a silent skip, never an error.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SourceID    uint       `gorm:"index;not null" json:"source_id"`
	Source      *Source    `gorm:"foreignKey:SourceID" json:"source,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	Link        string     `gorm:"uniqueIndex;not null" json:"link"`
	State       PostState  `gorm:"size:20;default:'UNPROCESSED';not null" json:"state"`
	Summary     string     `gorm:"type:text" json:"summary"`
	ExtractedAt time.Time  `gorm:"autoCreateTime" json:"extracted_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// Pending reports whether the post still awaits analysis
func (p *Post) Pending() bool {
	return p.State == PostStateUnprocessed
}
