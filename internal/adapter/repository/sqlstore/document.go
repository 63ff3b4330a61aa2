package sqlstore

import (
	"context"

	documentDomain "tuichain-backend/internal/domain/document"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *documentDomain.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DocumentRepository) Save(ctx context.Context, d *documentDomain.Document) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uint64) (*documentDomain.Document, error) {
	var out documentDomain.Document
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*documentDomain.Document, error) {
	var out documentDomain.Document
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) ListByLoanID(ctx context.Context, loanID uint64) ([]documentDomain.Document, error) {
	var out []documentDomain.Document
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id").Find(&out).Error
	return out, err
}

func (r *DocumentRepository) ListPublicByLoanID(ctx context.Context, loanID uint64) ([]documentDomain.Document, error) {
	var out []documentDomain.Document
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND is_public = ? AND approved = ?", loanID, true, true).
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *DocumentRepository) ListPending(ctx context.Context) ([]documentDomain.Document, error) {
	var out []documentDomain.Document
	err := r.db.WithContext(ctx).
		Where("approved = ? AND rejected = ?", false, false).
		Order("created_at, id").
		Find(&out).Error
	return out, err
}
