package document

import "context"

type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uint64) (*Document, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Document, error)
	Save(ctx context.Context, d *Document) error
	ListByLoanID(ctx context.Context, loanID uint64) ([]Document, error)
	ListPublicByLoanID(ctx context.Context, loanID uint64) ([]Document, error)
	ListPending(ctx context.Context) ([]Document, error)
}
