package identity

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the write operations of the user projection.
type Repository interface {
	// Upsert inserts the row or overwrites an existing row with the same ExternalID,
	// unless the stored row carries a newer SourceUpdatedAt.
	Upsert(ctx context.Context, user *User) error
	// Tombstone marks ExternalID deleted at version, inserting a tombstone when the
	// row does not exist yet.
	Tombstone(ctx context.Context, externalID string, version int64) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// staleGuard keeps an older delivery from overwriting a newer one.
var staleGuard = clause.Where{Exprs: []clause.Expression{
	clause.Expr{SQL: "users.source_updated_at <= excluded.source_updated_at"},
}}

var profileColumns = []string{
	"email",
	"first_name",
	"last_name",
	"image_url",
	"phone_number",
	"source_updated_at",
	"updated_at",
	"deleted_at",
}

// Upsert is a single INSERT ... ON CONFLICT statement, so concurrent duplicate
// deliveries race inside the database rather than in application code.
func (r *gormRepository) Upsert(ctx context.Context, user *User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
			Where:     staleGuard,
		}).
		Create(user).Error
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", user.ExternalID, err)
	}
	return nil
}

// Tombstone soft-deletes through the same upsert path so a late user.created cannot
// resurrect a subject that was already deleted at a newer version.
func (r *gormRepository) Tombstone(ctx context.Context, externalID string, version int64) error {
	tomb := &User{
		ExternalID:      externalID,
		SourceUpdatedAt: version,
		DeletedAt:       gorm.DeletedAt{Time: time.Now().UTC(), Valid: true},
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"deleted_at", "source_updated_at", "updated_at"}),
			Where:     staleGuard,
		}).
		Create(tomb).Error
	if err != nil {
		return fmt.Errorf("tombstone user %s: %w", externalID, err)
	}
	return nil
}
