package settlement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domain "tuichain-backend/internal/domain/settlement"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway serves the gateway API from an echo router.
func fakeGateway(t *testing.T, setup func(e *echo.Echo)) *HTTPBackend {
	t.Helper()
	e := echo.New()
	setup(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	b, err := NewHTTPBackend(HTTPConfig{BaseURL: srv.URL, Token: "s3cret", RetryMax: 2, Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)
	b.reads.RetryWaitMin, b.reads.RetryWaitMax = time.Millisecond, time.Millisecond
	return b
}

func TestNewHTTPBackend_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPBackend(HTTPConfig{BaseURL: "not a url"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestHTTPBackend_CreateLoan(t *testing.T) {
	var got createLoanBody
	b := fakeGateway(t, func(e *echo.Echo) {
		e.POST("/loans", func(c echo.Context) error {
			assert.Equal(t, "Bearer s3cret", c.Request().Header.Get("Authorization"))
			if err := json.NewDecoder(c.Request().Body).Decode(&got); err != nil {
				return err
			}
			return c.JSON(http.StatusCreated, map[string]string{"identifier": "0xid", "token_address": "0xtok"})
		})
	})

	h, err := b.CreateLoan(context.Background(), domain.CreateLoanParams{
		RecipientAddress: "0xrecipient",
		ExpirationPeriod: 2 * 24 * time.Hour,
		FundingFeeRate:   decimal.NewFromInt(5),
		PaymentFeeRate:   decimal.NewFromInt(6),
		RequestedValue:   decimal.RequireFromString("1000000000000000000000"),
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.LoanHandle{Identifier: "0xid", TokenAddress: "0xtok"}, h)
	assert.Equal(t, int64(172800), got.SecondsToExpiry)
	assert.Equal(t, "1000000000000000000000", got.RequestedValue.String())
}

func TestHTTPBackend_WritesAreNotRetried(t *testing.T) {
	var calls int32
	b := fakeGateway(t, func(e *echo.Echo) {
		e.POST("/loans", func(c echo.Context) error {
			atomic.AddInt32(&calls, 1)
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "nonce too low"})
		})
	})

	_, err := b.CreateLoan(context.Background(), domain.CreateLoanParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce too low")
	var ge *gatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusBadGateway, ge.Status)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestHTTPBackend_ReadsAreRetried(t *testing.T) {
	var calls int32
	b := fakeGateway(t, func(e *echo.Echo) {
		e.GET("/loans/:id/state", func(c echo.Context) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				return c.NoContent(http.StatusServiceUnavailable)
			}
			return c.JSON(http.StatusOK, map[string]string{
				"phase":                               "ACTIVE",
				"funded_value_atto_dai":               "1000",
				"redemption_value_atto_dai_per_token": "0",
			})
		})
	})

	st, err := b.LoanState(context.Background(), "0xid")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseActive, st.Phase)
	assert.True(t, st.FundedValue.Equal(decimal.NewFromInt(1000)))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestHTTPBackend_UnknownPhase(t *testing.T) {
	b := fakeGateway(t, func(e *echo.Echo) {
		e.GET("/loans/:id/state", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"phase": "LIMBO"})
		})
	})
	_, err := b.LoanState(context.Background(), "0xid")
	assert.ErrorContains(t, err, "LIMBO")
}

func TestHTTPBackend_TransactionsAndInfo(t *testing.T) {
	b := fakeGateway(t, func(e *echo.Echo) {
		e.POST("/loans/:id/transactions/:kind", func(c echo.Context) error {
			assert.Equal(t, "0xid", c.Param("id"))
			assert.Equal(t, "provide_funds", c.Param("kind"))
			return c.JSON(http.StatusOK, txsBody{Transactions: []domain.Transaction{
				{To: "0xdai", Data: "0xapprove"}, {To: "0xid", Data: "0xfund"},
			}})
		})
		e.POST("/loans/:id/market/:kind", func(c echo.Context) error {
			return c.JSON(http.StatusOK, txsBody{Transactions: []domain.Transaction{{To: "0xmarket", Data: "0x01"}}})
		})
		e.GET("/loans/:id/sell-positions", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]any{"sell_positions": []domain.SellPosition{
				{Seller: "0xs", AmountTokens: decimal.NewFromInt(2), Price: decimal.NewFromInt(9)},
			}})
		})
		e.POST("/loans/:id/cancel", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
		e.GET("/chain", func(c echo.Context) error {
			return c.JSON(http.StatusOK, domain.ChainInfo{ChainID: 1337, DaiContractAddress: "0xdai"})
		})
	})
	ctx := context.Background()

	txs, err := b.BuildLoanTransactions(ctx, "0xid", domain.LoanTxRequest{Kind: domain.LoanTxProvideFunds, Value: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	txs, err = b.BuildMarketTransactions(ctx, "0xid", domain.MarketTxRequest{Kind: domain.MarketTxRemoveSellPosition})
	require.NoError(t, err)
	assert.Equal(t, "0xmarket", txs[0].To)

	ps, err := b.SellPositions(ctx, "0xid")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "0xs", ps[0].Seller)

	require.NoError(t, b.CancelLoan(ctx, "0xid"))

	info, err := b.ChainInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1337), info.ChainID)
}
