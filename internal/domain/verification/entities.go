package verification

import (
	"context"
	"time"
)

type IDVerification struct {
	ID        uint64    `gorm:"primaryKey;column:id;autoIncrement" json:"-"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	IntentID  string    `gorm:"column:intent_id;size:255" json:"intent_id"`
	PersonID  string    `gorm:"column:person_id;size:255" json:"person_id"`
	Validated bool      `gorm:"column:validated;not null;default:false" json:"validated"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (IDVerification) TableName() string { return "id_verifications" }

type Intent struct {
	IntentID    string `json:"intent_id"`
	PersonID    string `json:"person_id"`
	RedirectURL string `json:"redirect_url"`
}

type IntentStatus struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
}

// StatusVerified is the provider status that marks a user as verified.
const StatusVerified = "verified"

// Provider is the external identity verification service.
type Provider interface {
	CreateIntent(ctx context.Context, subjectID string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*IntentStatus, error)
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uint64) (*IDVerification, error)
	Upsert(ctx context.Context, v *IDVerification) error
}
