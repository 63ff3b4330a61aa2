package documentmock

import (
	"context"

	domain "tuichain-backend/internal/domain/document"
)

var (
	_ domain.Repository = (*Repo)(nil)
	_ domain.BlobStore  = (*Store)(nil)
)

type Repo struct {
	CreateFn             func(ctx context.Context, d *domain.Document) error
	GetByIDFn            func(ctx context.Context, id uint64) (*domain.Document, error)
	GetByIDForUpdateFn   func(ctx context.Context, id uint64) (*domain.Document, error)
	SaveFn               func(ctx context.Context, d *domain.Document) error
	ListByLoanIDFn       func(ctx context.Context, loanID uint64) ([]domain.Document, error)
	ListPublicByLoanIDFn func(ctx context.Context, loanID uint64) ([]domain.Document, error)
	ListPendingFn        func(ctx context.Context) ([]domain.Document, error)
}

func (m *Repo) Create(ctx context.Context, d *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Document, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Document, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, d *domain.Document) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, d)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID uint64) ([]domain.Document, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) ListPublicByLoanID(ctx context.Context, loanID uint64) ([]domain.Document, error) {
	if m.ListPublicByLoanIDFn != nil {
		return m.ListPublicByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) ListPending(ctx context.Context) ([]domain.Document, error) {
	if m.ListPendingFn != nil {
		return m.ListPendingFn(ctx)
	}
	return nil, nil
}

// Store is a function-backed BlobStore.
type Store struct {
	StoreFn func(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

func (s *Store) Store(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if s.StoreFn != nil {
		return s.StoreFn(ctx, key, body, contentType)
	}
	return "mem://" + key, nil
}
