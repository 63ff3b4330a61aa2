package http

import (
	stdhttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txBody struct {
	Transactions []struct {
		To   string `json:"to"`
		Data string `json:"data"`
	} `json:"transactions"`
}

func TestLoanTransactions(t *testing.T) {
	a := newAPI(t)
	l := a.approvedLoan(t)

	rec := a.do(t, stdhttp.MethodPost, "/api/transactions/loan/provide_funds", investor, map[string]any{
		"loan_id": l.ID,
		"value":   "500",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	got := decode[txBody](t, rec)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, *l.Identifier, got.Transactions[0].To)
	assert.NotEmpty(t, got.Transactions[0].Data)

	rec = a.do(t, stdhttp.MethodPost, "/api/transactions/loan/steal_funds", investor, map[string]any{"loan_id": l.ID, "value": "1"})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, stdhttp.MethodPost, "/api/transactions/loan/make_payment", student, map[string]any{"loan_id": l.ID})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code, "zero value")

	rec = a.do(t, stdhttp.MethodPost, "/api/transactions/loan/provide_funds", investor, map[string]any{"loan_id": 999, "value": "1"})
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestMarketTransactions(t *testing.T) {
	a := newAPI(t)
	l := a.approvedLoan(t)

	rec := a.do(t, stdhttp.MethodPost, "/api/transactions/market/create_sell_position", investor, map[string]any{
		"loan_id":       l.ID,
		"amount_tokens": "10",
		"price":         "900",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	got := decode[txBody](t, rec)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, l.TokenAddress, got.Transactions[0].To)

	rec = a.do(t, stdhttp.MethodPost, "/api/transactions/market/purchase", investor, map[string]any{
		"loan_id":       l.ID,
		"amount_tokens": "10",
		"price":         "900",
	})
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "seller_address")

	rec = a.do(t, stdhttp.MethodPost, "/api/transactions/market/purchase", investor, map[string]any{
		"loan_id":        l.ID,
		"amount_tokens":  "10",
		"price":          "900",
		"seller_address": "nobody",
	})
	require.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	assert.True(t, containsFieldMsg(decode[ErrorResponse](t, rec).Details, "seller_address", "address"))

	rec = a.do(t, stdhttp.MethodPost, "/api/transactions/market/purchase", investor, map[string]any{
		"loan_id":        l.ID,
		"amount_tokens":  "10",
		"price":          "900",
		"seller_address": wallet,
		"fee_rate":       "0",
	})
	assert.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
}
