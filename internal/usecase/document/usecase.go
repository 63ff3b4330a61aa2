package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tuichain-backend/internal/domain/document"
	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/uow"
	"tuichain-backend/pkg/id"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type UploadInput struct {
	LoanID      uint64
	UploaderID  uint64
	Name        string
	IsPublic    bool
	ContentType string
	Body        []byte
}

type Usecase struct {
	loans  loan.Repository
	docs   document.Repository
	uow    uow.UnitOfWork
	store  document.BlobStore
	events events.Publisher
	log    zerolog.Logger
}

func NewUsecase(loans loan.Repository, docs document.Repository, u uow.UnitOfWork,
	store document.BlobStore, pub events.Publisher, log zerolog.Logger) *Usecase {
	return &Usecase{loans: loans, docs: docs, uow: u, store: store, events: pub, log: log}
}

func (u *Usecase) emit(ctx context.Context, t events.Type, d *document.Document, actor uint64) {
	if u.events == nil {
		return
	}
	e := events.New(t, d.LoanID, actor).With("document_id", strconv.FormatUint(d.ID, 10))
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn().Err(err).Str("event", string(t)).Uint64("document_id", d.ID).Msg("publish event")
	}
}

func (u *Usecase) ownedLoan(ctx context.Context, loanID, userID uint64) (*loan.Loan, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: loan %d", errs.ErrNotFound, loanID)
		}
		return nil, err
	}
	if l.StudentID != userID {
		return nil, fmt.Errorf("%w: loan %d belongs to another student", errs.ErrForbidden, loanID)
	}
	return l, nil
}

// Upload stores the body in the blob store and records the document as
// pending evaluation.
func (u *Usecase) Upload(ctx context.Context, in UploadInput) (*document.Document, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", errs.ErrValidation)
	}
	if len(name) > 255 {
		return nil, fmt.Errorf("%w: document name is longer than 255 characters", errs.ErrValidation)
	}
	if len(in.Body) == 0 {
		return nil, fmt.Errorf("%w: document is empty", errs.ErrValidation)
	}
	l, err := u.ownedLoan(ctx, in.LoanID, in.UploaderID)
	if err != nil {
		return nil, err
	}

	key := id.ObjectKey(l.ID, name)
	url, err := u.store.Store(ctx, key, in.Body, in.ContentType)
	if err != nil {
		return nil, &errs.StorageError{Key: key, Err: err}
	}

	d := &document.Document{
		LoanID:   l.ID,
		Name:     name,
		URL:      url,
		IsPublic: in.IsPublic,
	}
	if err := u.docs.Create(ctx, d); err != nil {
		u.log.Error().Err(err).Str("key", key).Msg("document stored but not recorded")
		return nil, err
	}
	u.emit(ctx, events.DocumentUploaded, d, in.UploaderID)
	return d, nil
}

func (u *Usecase) evaluate(ctx context.Context, docID, adminID uint64, approve bool) (*document.Document, error) {
	var out *document.Document
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		d, err := r.Documents.GetByIDForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if approve {
			d.Approve()
		} else {
			d.Reject()
		}
		if err := r.Documents.Save(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %d", errs.ErrNotFound, docID)
		}
		return nil, err
	}
	t := events.DocumentRejected
	if approve {
		t = events.DocumentApproved
	}
	u.emit(ctx, t, out, adminID)
	return out, nil
}

// Approve marks a document approved. A previously rejected document may be
// re-evaluated.
func (u *Usecase) Approve(ctx context.Context, docID, adminID uint64) (*document.Document, error) {
	return u.evaluate(ctx, docID, adminID, true)
}

func (u *Usecase) Reject(ctx context.Context, docID, adminID uint64) (*document.Document, error) {
	return u.evaluate(ctx, docID, adminID, false)
}

func (u *Usecase) Get(ctx context.Context, docID uint64) (*document.Document, error) {
	d, err := u.docs.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %d", errs.ErrNotFound, docID)
		}
		return nil, err
	}
	return d, nil
}

// ListPublic returns the documents anyone may see: public and approved.
func (u *Usecase) ListPublic(ctx context.Context, loanID uint64) ([]document.Document, error) {
	if _, err := u.loans.GetByID(ctx, loanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: loan %d", errs.ErrNotFound, loanID)
		}
		return nil, err
	}
	return u.docs.ListPublicByLoanID(ctx, loanID)
}

// ListForStudent returns every document of the loan to its owner.
func (u *Usecase) ListForStudent(ctx context.Context, loanID, studentID uint64) ([]document.Document, error) {
	if _, err := u.ownedLoan(ctx, loanID, studentID); err != nil {
		return nil, err
	}
	return u.docs.ListByLoanID(ctx, loanID)
}

func (u *Usecase) ListUnevaluated(ctx context.Context) ([]document.Document, error) {
	return u.docs.ListPending(ctx)
}
