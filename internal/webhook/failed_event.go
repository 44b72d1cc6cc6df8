package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dead-letter stages.
const (
	StageNormalize = "normalize"
	StageProject   = "project"
)

// FailedEvent records an authenticated delivery that was acknowledged but not projected,
// so operators can reconcile it later.
type FailedEvent struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	MessageID  string    `gorm:"type:varchar(255);index" json:"message_id"`
	EventType  string    `gorm:"type:varchar(100)" json:"event_type"`
	ExternalID string    `gorm:"type:varchar(191);index" json:"external_id"`
	Stage      string    `gorm:"type:varchar(20);not null" json:"stage"`
	Reason     string    `gorm:"type:text" json:"reason"`
	Payload    string    `gorm:"type:text" json:"payload"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (FailedEvent) TableName() string {
	return "failed_webhook_events"
}

// BeforeCreate assigns the primary key.
func (f *FailedEvent) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FailedEventRepository stores dead letters.
type FailedEventRepository interface {
	Record(ctx context.Context, ev *FailedEvent) error
	List(ctx context.Context, limit int) ([]FailedEvent, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type gormFailedEventRepository struct {
	db *gorm.DB
}

func NewGORMFailedEventRepository(db *gorm.DB) FailedEventRepository {
	return &gormFailedEventRepository{db: db}
}

func (r *gormFailedEventRepository) Record(ctx context.Context, ev *FailedEvent) error {
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("record failed event %s: %w", ev.MessageID, err)
	}
	return nil
}

// List returns the newest dead letters first.
func (r *gormFailedEventRepository) List(ctx context.Context, limit int) ([]FailedEvent, error) {
	var events []FailedEvent
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list failed events: %w", err)
	}
	return events, nil
}

func (r *gormFailedEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&FailedEvent{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune failed events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
