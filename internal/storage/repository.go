package storage

import (
	"context"

	"github.com/milewatcher/internal/models"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Source operations
	GetOrCreateSource(ctx context.Context, name string) (*models.Source, error)
	ListSources(ctx context.Context) ([]*models.Source, error)

	// Post operations
	InsertPosts(ctx context.Context, sourceID uint, items []models.PostItem) (int, error)
	PostsPendingAnalysis(ctx context.Context, filter PendingFilter) ([]*models.Post, error)
	SetPostState(ctx context.Context, postID uint, state models.PostState, summary string) error
	ListPosts(ctx context.Context, filter PostFilter) ([]*models.Post, error)

	// Maintenance
	Close() error
	Migrate() error
}

// PendingFilter restricts the pending-analysis query
type PendingFilter struct {
	SourceID *uint
	Limit    int
}

// PostFilter defines filtering options for post listings
type PostFilter struct {
	State    *models.PostState
	SourceID *uint
	Limit    int
	Offset   int
}

// DefaultPostFilter returns a filter with sensible defaults
func DefaultPostFilter() PostFilter {
	return PostFilter{
		Limit: 50,
	}
}
