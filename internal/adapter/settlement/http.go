package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "tuichain-backend/internal/domain/settlement"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HTTPBackend talks to the JSON gateway in front of the chain controller.
// Reads are retried on transport errors and 5xx; writes are sent once.
type HTTPBackend struct {
	base   *url.URL
	token  string
	reads  *retryablehttp.Client
	writes *retryablehttp.Client
}

var _ domain.Backend = (*HTTPBackend)(nil)

type HTTPConfig struct {
	BaseURL  string
	Token    string
	RetryMax int
	Timeout  time.Duration
}

func NewHTTPBackend(cfg HTTPConfig, log zerolog.Logger) (*HTTPBackend, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid settlement gateway url %q", cfg.BaseURL)
	}
	newClient := func(retries int) *retryablehttp.Client {
		c := retryablehttp.NewClient()
		c.RetryMax = retries
		c.RetryWaitMin = 100 * time.Millisecond
		c.RetryWaitMax = time.Second
		c.HTTPClient.Timeout = cfg.Timeout
		c.Logger = leveled{log}
		c.ErrorHandler = retryablehttp.PassthroughErrorHandler
		return c
	}
	return &HTTPBackend{
		base:   base,
		token:  cfg.Token,
		reads:  newClient(cfg.RetryMax),
		writes: newClient(0),
	}, nil
}

// gatewayError is the gateway's error body, kept verbatim.
type gatewayError struct {
	Status  int
	Message string
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.Status, e.Message)
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, b.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	client := b.writes
	if method == http.MethodGet {
		client = b.reads
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &gatewayError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func loanPath(identifier string, rest ...string) string {
	p := "/loans/" + url.PathEscape(identifier)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

type createLoanBody struct {
	RecipientAddress string          `json:"recipient_address"`
	SecondsToExpiry  int64           `json:"seconds_to_expiration"`
	FundingFeeRate   decimal.Decimal `json:"funding_fee_atto_dai_per_dai"`
	PaymentFeeRate   decimal.Decimal `json:"payment_fee_atto_dai_per_dai"`
	RequestedValue   decimal.Decimal `json:"requested_value_atto_dai"`
}

func (b *HTTPBackend) CreateLoan(ctx context.Context, p domain.CreateLoanParams) (*domain.LoanHandle, error) {
	var out domain.LoanHandle
	err := b.do(ctx, http.MethodPost, "/loans", createLoanBody{
		RecipientAddress: p.RecipientAddress,
		SecondsToExpiry:  int64(p.ExpirationPeriod / time.Second),
		FundingFeeRate:   p.FundingFeeRate,
		PaymentFeeRate:   p.PaymentFeeRate,
		RequestedValue:   p.RequestedValue,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *HTTPBackend) GetLoan(ctx context.Context, identifier string) (*domain.LoanHandle, error) {
	var out domain.LoanHandle
	if err := b.do(ctx, http.MethodGet, loanPath(identifier), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (b *HTTPBackend) ListLoans(ctx context.Context) ([]domain.LoanHandle, error) {
	var out struct {
		Loans []domain.LoanHandle `json:"loans"`
	}
	if err := b.do(ctx, http.MethodGet, "/loans", nil, &out); err != nil {
		return nil, err
	}
	return out.Loans, nil
}

type loanStateBody struct {
	Phase           string          `json:"phase"`
	FundedValue     decimal.Decimal `json:"funded_value_atto_dai"`
	RedemptionValue decimal.Decimal `json:"redemption_value_atto_dai_per_token"`
}

func (b *HTTPBackend) LoanState(ctx context.Context, identifier string) (*domain.LoanState, error) {
	var out loanStateBody
	if err := b.do(ctx, http.MethodGet, loanPath(identifier, "state"), nil, &out); err != nil {
		return nil, err
	}
	phase, ok := domain.ParsePhase(out.Phase)
	if !ok {
		return nil, fmt.Errorf("unknown loan phase %q", out.Phase)
	}
	return &domain.LoanState{Phase: phase, FundedValue: out.FundedValue, RedemptionValue: out.RedemptionValue}, nil
}

func (b *HTTPBackend) CancelLoan(ctx context.Context, identifier string) error {
	return b.do(ctx, http.MethodPost, loanPath(identifier, "cancel"), struct{}{}, nil)
}

func (b *HTTPBackend) FinalizeLoan(ctx context.Context, identifier string) error {
	return b.do(ctx, http.MethodPost, loanPath(identifier, "finalize"), struct{}{}, nil)
}

func (b *HTTPBackend) SellPositions(ctx context.Context, identifier string) ([]domain.SellPosition, error) {
	var out struct {
		Positions []domain.SellPosition `json:"sell_positions"`
	}
	if err := b.do(ctx, http.MethodGet, loanPath(identifier, "sell-positions"), nil, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

type txsBody struct {
	Transactions []domain.Transaction `json:"transactions"`
}

func (b *HTTPBackend) BuildLoanTransactions(ctx context.Context, identifier string, req domain.LoanTxRequest) ([]domain.Transaction, error) {
	var out txsBody
	if err := b.do(ctx, http.MethodPost, loanPath(identifier, "transactions", string(req.Kind)), req, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (b *HTTPBackend) BuildMarketTransactions(ctx context.Context, identifier string, req domain.MarketTxRequest) ([]domain.Transaction, error) {
	var out txsBody
	if err := b.do(ctx, http.MethodPost, loanPath(identifier, "market", string(req.Kind)), req, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (b *HTTPBackend) ChainInfo(ctx context.Context) (*domain.ChainInfo, error) {
	var out domain.ChainInfo
	if err := b.do(ctx, http.MethodGet, "/chain", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// leveled adapts zerolog to retryablehttp's LeveledLogger.
type leveled struct{ log zerolog.Logger }

func (l leveled) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
func (l leveled) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.log.Debug().Fields(kv).Msg(msg) }
