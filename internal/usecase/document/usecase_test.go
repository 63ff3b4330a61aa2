package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tuichain-backend/internal/adapter/repository/sqlstore"
	"tuichain-backend/internal/adapter/storage"
	"tuichain-backend/internal/domain/document"
	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/events"
	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/testutil/documentmock"
	"tuichain-backend/internal/testutil/dbtest"
	"tuichain-backend/internal/testutil/eventsmock"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner    = uint64(21)
	stranger = uint64(22)
	admin    = uint64(1)
)

type harness struct {
	uc     *Usecase
	store  *storage.Memory
	events *eventsmock.Recorder
	loanID uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.Open(t)
	loans := sqlstore.NewLoanRepository(db)
	l := &loan.Loan{
		StudentID:        owner,
		School:           "FEUP",
		Course:           "MIEIC",
		Destination:      "Porto",
		Description:      "tuition",
		RequestedValue:   decimal.NewFromInt(1000),
		RecipientAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
		State:            loan.StatePending,
		StateUpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, loans.Create(context.Background(), l))

	h := &harness{store: storage.NewMemory(""), events: &eventsmock.Recorder{}, loanID: l.ID}
	h.uc = NewUsecase(loans, sqlstore.NewDocumentRepository(db), sqlstore.NewGormUoW(db),
		h.store, h.events, zerolog.Nop())
	return h
}

func (h *harness) upload(t *testing.T, name string, public bool) *document.Document {
	t.Helper()
	d, err := h.uc.Upload(context.Background(), UploadInput{
		LoanID: h.loanID, UploaderID: owner, Name: name, IsPublic: public,
		ContentType: "application/pdf", Body: []byte("%PDF-1.4 " + name),
	})
	require.NoError(t, err)
	return d
}

func names(ds []document.Document) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func TestUpload(t *testing.T) {
	h := newHarness(t)
	d := h.upload(t, "transcript.pdf", true)

	assert.True(t, d.Pending())
	assert.True(t, strings.HasPrefix(d.URL, "mem://documents/loans/"), d.URL)
	assert.True(t, strings.HasSuffix(d.URL, "-transcript.pdf"), d.URL)

	key := strings.TrimPrefix(d.URL, "mem://documents/")
	o, ok := h.store.Get(key)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4 transcript.pdf", string(o.Body))
	assert.Equal(t, []events.Type{events.DocumentUploaded}, h.events.Types())
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   func(loanID uint64) UploadInput
		want error
	}{
		{"empty name", func(id uint64) UploadInput {
			return UploadInput{LoanID: id, UploaderID: owner, Name: " ", Body: []byte("x")}
		}, errs.ErrValidation},
		{"empty body", func(id uint64) UploadInput {
			return UploadInput{LoanID: id, UploaderID: owner, Name: "a.pdf"}
		}, errs.ErrValidation},
		{"unknown loan", func(uint64) UploadInput {
			return UploadInput{LoanID: 9999, UploaderID: owner, Name: "a.pdf", Body: []byte("x")}
		}, errs.ErrNotFound},
		{"not the owner", func(id uint64) UploadInput {
			return UploadInput{LoanID: id, UploaderID: stranger, Name: "a.pdf", Body: []byte("x")}
		}, errs.ErrForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.uc.Upload(context.Background(), tc.in(h.loanID))
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, h.events.Types())
		})
	}
}

func TestPublicVisibility(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	pub := h.upload(t, "public.pdf", true)
	priv := h.upload(t, "private.pdf", false)

	listed, err := h.uc.ListPublic(ctx, h.loanID)
	require.NoError(t, err)
	assert.Empty(t, listed, "nothing is public before approval")

	queue, err := h.uc.ListUnevaluated(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"public.pdf", "private.pdf"}, names(queue))

	_, err = h.uc.Approve(ctx, pub.ID, admin)
	require.NoError(t, err)
	_, err = h.uc.Approve(ctx, priv.ID, admin)
	require.NoError(t, err)

	listed, err = h.uc.ListPublic(ctx, h.loanID)
	require.NoError(t, err)
	assert.Equal(t, []string{"public.pdf"}, names(listed))

	got, err := h.uc.Reject(ctx, pub.ID, admin)
	require.NoError(t, err)
	assert.True(t, got.Rejected)
	assert.False(t, got.Approved)

	listed, err = h.uc.ListPublic(ctx, h.loanID)
	require.NoError(t, err)
	assert.Empty(t, listed, "rejected documents leave the public list")

	queue, err = h.uc.ListUnevaluated(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	mine, err := h.uc.ListForStudent(ctx, h.loanID, owner)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"public.pdf", "private.pdf"}, names(mine), "owner still sees everything")

	_, err = h.uc.ListForStudent(ctx, h.loanID, stranger)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	// re-evaluation is allowed
	got, err = h.uc.Approve(ctx, pub.ID, admin)
	require.NoError(t, err)
	assert.True(t, got.PubliclyVisible())

	assert.Equal(t, []events.Type{
		events.DocumentUploaded, events.DocumentUploaded,
		events.DocumentApproved, events.DocumentApproved,
		events.DocumentRejected, events.DocumentApproved,
	}, h.events.Types())
}

func TestEvaluate_NotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.uc.Approve(ctx, 404, admin)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = h.uc.Reject(ctx, 404, admin)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = h.uc.Get(ctx, 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = h.uc.ListPublic(ctx, 404)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpload_StoreFailure(t *testing.T) {
	ctx := context.Background()
	created := false
	docs := &documentmock.Repo{CreateFn: func(context.Context, *document.Document) error {
		created = true
		return nil
	}}
	store := &documentmock.Store{StoreFn: func(context.Context, string, []byte, string) (string, error) {
		return "", errors.New("bucket does not exist")
	}}
	db := dbtest.Open(t)
	loans := sqlstore.NewLoanRepository(db)
	l := &loan.Loan{StudentID: owner, School: "s", Course: "c", Destination: "d", Description: "x",
		RequestedValue: decimal.NewFromInt(1), RecipientAddress: "0x0", StateUpdatedAt: time.Now()}
	require.NoError(t, loans.Create(ctx, l))

	uc := NewUsecase(loans, docs, sqlstore.NewGormUoW(db), store, nil, zerolog.Nop())
	_, err := uc.Upload(ctx, UploadInput{LoanID: l.ID, UploaderID: owner, Name: "a.pdf", Body: []byte("x")})

	assert.ErrorIs(t, err, errs.ErrStorage)
	var se *errs.StorageError
	require.ErrorAs(t, err, &se)
	assert.True(t, strings.HasPrefix(se.Key, "loans/"), se.Key)
	assert.Contains(t, err.Error(), "bucket does not exist")
	assert.False(t, created, "no row without a stored body")
}
