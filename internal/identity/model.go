package identity

import (
	"time"

	"gorm.io/gorm"
)

// User is the local projection of a provider identity.
// ExternalID is the provider's subject id and never changes once written.
type User struct {
	ExternalID      string `gorm:"column:external_id;type:varchar(191);primaryKey"`
	Email           string `gorm:"type:varchar(320);not null"`
	FirstName       string `gorm:"type:varchar(255);not null"`
	LastName        string `gorm:"type:varchar(255);not null"`
	ImageURL        string `gorm:"column:image_url;type:text;not null"`
	PhoneNumber     string `gorm:"type:varchar(64);not null"`
	SourceUpdatedAt int64  `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
