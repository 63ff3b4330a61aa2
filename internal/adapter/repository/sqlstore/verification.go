package sqlstore

import (
	"context"

	verificationDomain "tuichain-backend/internal/domain/verification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationRepository struct{ db *gorm.DB }

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) GetByUserID(ctx context.Context, userID uint64) (*verificationDomain.IDVerification, error) {
	var out verificationDomain.IDVerification
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out)
	return &out, res.Error
}

// Upsert keeps one row per user, replacing the intent fields on conflict.
func (r *VerificationRepository) Upsert(ctx context.Context, v *verificationDomain.IDVerification) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"intent_id", "person_id", "validated", "updated_at"}),
		}).
		Create(v).Error
}
