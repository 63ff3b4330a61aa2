package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	locks "tuichain-backend/internal/adapter/lock"
	"tuichain-backend/internal/adapter/middleware"
	"tuichain-backend/internal/adapter/repository/sqlstore"
	settlementadapter "tuichain-backend/internal/adapter/settlement"
	"tuichain-backend/internal/adapter/storage"
	"tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/domain/verification"
	"tuichain-backend/internal/testutil/dbtest"
	"tuichain-backend/internal/testutil/eventsmock"
	documentuc "tuichain-backend/internal/usecase/document"
	investmentuc "tuichain-backend/internal/usecase/investment"
	loanuc "tuichain-backend/internal/usecase/loan"
	settlementuc "tuichain-backend/internal/usecase/settlement"
	verificationuc "tuichain-backend/internal/usecase/verification"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	student  = uint64(101)
	investor = uint64(202)
	adminID  = uint64(1)
	wallet   = "0x52908400098527886E0F7030069857D2E4169EE7"
)

var secret = []byte("api-test-secret")

type fakeProvider struct{ status string }

func (p *fakeProvider) CreateIntent(_ context.Context, subject string) (*verification.Intent, error) {
	return &verification.Intent{IntentID: "vs_" + subject, PersonID: "person_" + subject, RedirectURL: "https://verify.test/" + subject}, nil
}

func (p *fakeProvider) GetIntent(_ context.Context, id string) (*verification.IntentStatus, error) {
	return &verification.IntentStatus{IntentID: id, Status: p.status}, nil
}

type api struct {
	e      *echo.Echo
	chain  *settlementadapter.Memory
	store  *storage.Memory
	events *eventsmock.Recorder
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWith(t, nil)
}

// newAPIWith enables the idempotency middleware when rdb is set.
func newAPIWith(t *testing.T, rdb *redis.Client) *api {
	t.Helper()
	db := dbtest.Open(t)
	loans := sqlstore.NewLoanRepository(db)
	tx := sqlstore.NewGormUoW(db)
	chain := settlementadapter.NewMemory(settlement.ChainInfo{ChainID: 1337, DaiContractAddress: wallet})
	bridge := settlementuc.NewBridge(chain, time.Second)
	store := storage.NewMemory("")
	rec := &eventsmock.Recorder{}
	log := zerolog.Nop()

	e := echo.New()
	e.HideBanner = true
	Register(e, RouterDeps{
		Loans: loanuc.NewUsecase(loanuc.Deps{
			Loans:  loans,
			UoW:    tx,
			Bridge: bridge,
			Locker: locks.NewLocal(time.Second),
			Events: rec,
			Log:    log,
		}),
		Investments:  investmentuc.NewUsecase(loans, sqlstore.NewInvestmentRepository(db), tx, bridge, rec, log),
		Documents:    documentuc.NewUsecase(loans, sqlstore.NewDocumentRepository(db), tx, store, rec, log),
		Verification: verificationuc.NewUsecase(&fakeProvider{status: verification.StatusVerified}, sqlstore.NewVerificationRepository(db), log),
		Chain:        bridge,
		JWTSecret:    secret,
		Redis:        rdb,
		IdempTTL:     time.Minute,
		Log:          log,
	})
	return &api{e: e, chain: chain, store: store, events: rec}
}

func token(t *testing.T, user uint64, admin bool) string {
	t.Helper()
	tok, err := middleware.IssueToken(secret, user, admin, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *api) send(t *testing.T, req *stdhttp.Request, user uint64, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	if user != 0 {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, user, admin))
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// do sends a JSON request as user; user 0 sends no token.
func (a *api) do(t *testing.T, method, path string, user uint64, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doAs(t, method, path, user, false, body)
}

func (a *api) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doAs(t, method, path, adminID, true, body)
}

func (a *api) doAs(t *testing.T, method, path string, user uint64, admin bool, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.send(t, req, user, admin)
}

func (a *api) upload(t *testing.T, path string, user uint64, name string, public bool, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	if public {
		require.NoError(t, w.WriteField("is_public", "true"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(stdhttp.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return a.send(t, req, user, false)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func loanBody() map[string]any {
	return map[string]any{
		"school":            "FEUP",
		"course":            "Informatics and Computing Engineering",
		"destination":       "Porto",
		"description":       "tuition and housing",
		"requested_value":   "1000",
		"recipient_address": wallet,
	}
}

func approvalBody() map[string]any {
	return map[string]any{
		"days_to_expiration":           "30",
		"funding_fee_atto_dai_per_dai": "0",
		"payment_fee_atto_dai_per_dai": "0",
	}
}

// createLoan files a loan for student and returns it.
func (a *api) createLoan(t *testing.T) loanuc.LoanDTO {
	t.Helper()
	rec := a.do(t, stdhttp.MethodPost, "/api/loans", student, loanBody())
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	return decode[loanuc.LoanDTO](t, rec)
}

func (a *api) approvedLoan(t *testing.T) loanuc.LoanDTO {
	t.Helper()
	l := a.createLoan(t)
	rec := a.admin(t, stdhttp.MethodPut, path("/api/loans/%d/validate", l.ID), approvalBody())
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	return decode[loanuc.LoanDTO](t, rec)
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
