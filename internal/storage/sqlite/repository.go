package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/milewatcher/internal/models"
	"github.com/milewatcher/internal/storage"
	"github.com/milewatcher/pkg/logger"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

// New creates a new SQLite repository, creating the data directory on demand
func New(dsn string, log *logger.Logger) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db, log: log.WithComponent("storage")}, nil
}

// Migrate runs database migrations. Safe to call on every process start.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Source{},
		&models.Post{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Source operations

// GetOrCreateSource returns the source with the given name, creating it on
// first reference. Sources are never updated or deleted.
func (r *Repository) GetOrCreateSource(ctx context.Context, name string) (*models.Source, error) {
	var source models.Source
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&source).Error
	if err == nil {
		return &source, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up source %q: %w", name, err)
	}

	source = models.Source{Name: name}
	if err := r.db.WithContext(ctx).Create(&source).Error; err != nil {
		return nil, fmt.Errorf("failed to create source %q: %w", name, err)
	}

	r.log.Info().Str("name", name).Uint("source_id", source.ID).Msg("Registered new source")
	return &source, nil
}

func (r *Repository) ListSources(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	if err := r.db.WithContext(ctx).Order("id").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// Post operations

// InsertPosts inserts each scraped item as an unprocessed post. Items whose
// link already exists anywhere in the store are skipped without error.
// Returns the number of rows actually inserted. Each insert is its own
// transaction; a mid-batch failure leaves earlier inserts in place, which is
// safe because duplicate links are skipped on the next run.
func (r *Repository) InsertPosts(ctx context.Context, sourceID uint, items []models.PostItem) (int, error) {
	inserted := 0
	skipped := 0

	for _, item := range items {
		post := models.Post{
			SourceID: sourceID,
			Title:    item.Title,
			Link:     item.Link,
			State:    models.PostStateUnprocessed,
		}

		result := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "link"}},
				DoNothing: true,
			}).
			Create(&post)
		if result.Error != nil {
			r.log.Error().Err(result.Error).Str("link", item.Link).Msg("Failed to insert post")
			continue
		}

		if result.RowsAffected > 0 {
			inserted++
		} else {
			skipped++
			r.log.Debug().Str("link", item.Link).Msg("Skipping duplicate post")
		}
	}

	r.log.Info().
		Int("inserted", inserted).
		Int("skipped", skipped).
		Uint("source_id", sourceID).
		Msg("Inserted new posts")

	return inserted, nil
}

// PostsPendingAnalysis returns posts still in the UNPROCESSED state,
// optionally filtered to one source and capped in count. Order is
// unspecified.
func (r *Repository) PostsPendingAnalysis(ctx context.Context, filter storage.PendingFilter) ([]*models.Post, error) {
	var posts []*models.Post
	query := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("state = ?", models.PostStateUnprocessed)

	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve pending posts: %w", err)
	}
	return posts, nil
}

// SetPostState updates a post's lifecycle state and summary and stamps the
// current time as processed_at. An unknown post id is a logged no-op.
func (r *Repository) SetPostState(ctx context.Context, postID uint, state models.PostState, summary string) error {
	if !state.Valid() {
		return fmt.Errorf("invalid post state %q", state)
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"state":        state,
			"summary":      summary,
			"processed_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update state for post %d: %w", postID, result.Error)
	}

	if result.RowsAffected == 0 {
		r.log.Warn().Uint("post_id", postID).Msg("Post not found to update state")
		return nil
	}

	r.log.Debug().
		Uint("post_id", postID).
		Str("state", string(state)).
		Msg("Post state updated")
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, filter storage.PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	query := r.db.WithContext(ctx).Model(&models.Post{}).Preload("Source")

	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Order("extracted_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
