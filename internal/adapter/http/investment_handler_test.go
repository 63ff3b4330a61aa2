package http

import (
	stdhttp "net/http"
	"testing"

	investmentuc "tuichain-backend/internal/usecase/investment"
	loanuc "tuichain-backend/internal/usecase/loan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invest(t *testing.T, a *api, user, loanID uint64, amount string) int {
	t.Helper()
	return a.do(t, stdhttp.MethodPost, "/api/investments", user, map[string]any{
		"loan_id": loanID,
		"amount":  amount,
	}).Code
}

func TestInvest_CapacityScenario(t *testing.T) {
	a := newAPI(t)
	l := a.approvedLoan(t)

	assert.Equal(t, stdhttp.StatusCreated, invest(t, a, investor, l.ID, "600"))
	assert.Equal(t, stdhttp.StatusConflict, invest(t, a, investor, l.ID, "500"))
	assert.Equal(t, stdhttp.StatusCreated, invest(t, a, investor, l.ID, "400"))
	assert.Equal(t, stdhttp.StatusConflict, invest(t, a, investor, l.ID, "1"))

	rec := a.do(t, stdhttp.MethodGet, path("/api/loans/%d", l.ID), investor, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "1000", decode[loanuc.LoanDTO](t, rec).CurrentAmount.String())

	rec = a.do(t, stdhttp.MethodGet, path("/api/loans/%d/investments", l.ID), student, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Len(t, decode[[]investmentuc.InvestmentDTO](t, rec), 2)
}

func TestInvest_Rejections(t *testing.T) {
	a := newAPI(t)
	l := a.approvedLoan(t)

	assert.Equal(t, stdhttp.StatusForbidden, invest(t, a, student, l.ID, "10"))
	assert.Equal(t, stdhttp.StatusNotFound, invest(t, a, investor, 999, "10"))
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, invest(t, a, investor, l.ID, "-10"))
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, invest(t, a, investor, l.ID, "0"))
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, invest(t, a, investor, 0, "10"))
	assert.Equal(t, stdhttp.StatusUnauthorized, invest(t, a, 0, l.ID, "10"))

	pending := a.do(t, stdhttp.MethodPost, "/api/loans", investor, loanBody())
	pendingID := decode[loanuc.LoanDTO](t, pending).ID
	assert.Equal(t, stdhttp.StatusConflict, invest(t, a, student, pendingID, "10"))
}

func TestInvestments_Reads(t *testing.T) {
	a := newAPI(t)
	l := a.approvedLoan(t)

	rec := a.do(t, stdhttp.MethodPost, "/api/investments", investor, map[string]any{"loan_id": l.ID, "amount": "250"})
	require.Equal(t, stdhttp.StatusCreated, rec.Code)
	created := decode[investmentuc.InvestmentDTO](t, rec)
	assert.Equal(t, investor, created.InvestorID)

	rec = a.do(t, stdhttp.MethodGet, path("/api/investments/%d", created.ID), student, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "250", decode[investmentuc.InvestmentDTO](t, rec).Amount.String())

	mine := decode[[]investmentuc.InvestmentDTO](t, a.do(t, stdhttp.MethodGet, "/api/investments/personal", investor, nil))
	assert.Len(t, mine, 1)
	none := decode[[]investmentuc.InvestmentDTO](t, a.do(t, stdhttp.MethodGet, "/api/investments/personal", student, nil))
	assert.Empty(t, none)

	assert.Equal(t, stdhttp.StatusNotFound, a.do(t, stdhttp.MethodGet, "/api/investments/999", investor, nil).Code)
	assert.Equal(t, stdhttp.StatusNotFound, a.do(t, stdhttp.MethodGet, "/api/loans/999/investments", investor, nil).Code)
}
