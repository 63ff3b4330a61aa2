package approvalmock

import (
	"context"
	"errors"
	"testing"

	domain "tuichain-backend/internal/domain/approval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_Defaults(t *testing.T) {
	m := &Repo{}
	assert.NoError(t, m.Create(context.Background(), &domain.Approval{}))
	_, err := m.GetByLoanID(context.Background(), 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepo_ForwardsToFuncs(t *testing.T) {
	stored := map[uint64]*domain.Approval{}
	dup := errors.New("duplicate approval")
	m := &Repo{
		CreateFn: func(_ context.Context, a *domain.Approval) error {
			if _, ok := stored[a.LoanID]; ok {
				return dup
			}
			stored[a.LoanID] = a
			return nil
		},
		GetByLoanIDFn: func(_ context.Context, loanID uint64) (*domain.Approval, error) {
			if a, ok := stored[loanID]; ok {
				return a, nil
			}
			return nil, errors.New("not found")
		},
	}
	ctx := context.Background()
	a := &domain.Approval{LoanID: 7, Identifier: "0xabc"}

	require.NoError(t, m.Create(ctx, a))
	assert.ErrorIs(t, m.Create(ctx, a), dup)

	got, err := m.GetByLoanID(ctx, 7)
	require.NoError(t, err)
	assert.Same(t, a, got)
	_, err = m.GetByLoanID(ctx, 8)
	assert.Error(t, err)
}
