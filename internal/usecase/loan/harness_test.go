package loan

import (
	"context"
	"strings"
	"testing"
	"time"

	locks "tuichain-backend/internal/adapter/lock"
	"tuichain-backend/internal/adapter/repository/sqlstore"
	settlementadapter "tuichain-backend/internal/adapter/settlement"
	"tuichain-backend/internal/domain/loan"
	domainsettlement "tuichain-backend/internal/domain/settlement"
	"tuichain-backend/internal/testutil/dbtest"
	"tuichain-backend/internal/testutil/eventsmock"
	settlementuc "tuichain-backend/internal/usecase/settlement"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	studentA = uint64(101)
	studentB = uint64(102)
	adminID  = uint64(1)
	address  = "0x52908400098527886E0F7030069857D2E4169EE7"
)

type harness struct {
	db     *gorm.DB
	uc     *Usecase
	chain  *settlementadapter.Memory
	events *eventsmock.Recorder
	loans  *sqlstore.LoanRepository
	verif  *sqlstore.VerificationRepository
	deps   Deps
}

func newHarness(t *testing.T, requireVerification bool) *harness {
	t.Helper()
	db := dbtest.Open(t)
	chain := settlementadapter.NewMemory(domainsettlement.ChainInfo{ChainID: 1337})
	rec := &eventsmock.Recorder{}
	h := &harness{
		db:     db,
		chain:  chain,
		events: rec,
		loans:  sqlstore.NewLoanRepository(db),
		verif:  sqlstore.NewVerificationRepository(db),
	}
	h.deps = Deps{
		Loans:               h.loans,
		UoW:                 sqlstore.NewGormUoW(db),
		Bridge:              settlementuc.NewBridge(chain, time.Second),
		Locker:              locks.NewLocal(time.Second),
		Events:              rec,
		Log:                 zerolog.Nop(),
		Verifications:       h.verif,
		RequireVerification: requireVerification,
	}
	h.uc = NewUsecase(h.deps)
	return h
}

func createInput(student uint64) CreateLoanInput {
	return CreateLoanInput{
		StudentID:        student,
		School:           "FEUP",
		Course:           "Informatics and Computing Engineering",
		Destination:      "Porto",
		Description:      strings.Repeat("x", 200),
		RequestedValue:   decimal.NewFromInt(1000),
		RecipientAddress: address,
	}
}

func validateInput(id uint64) ValidateInput {
	return ValidateInput{
		LoanID:         id,
		ValidatorID:    adminID,
		ExpirationDays: "30",
		FundingFeeRate: "10000000000000000",
		PaymentFeeRate: "20000000000000000",
	}
}

func (h *harness) create(t *testing.T, student uint64) *LoanDTO {
	t.Helper()
	dto, err := h.uc.Create(context.Background(), createInput(student))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return dto
}

func (h *harness) approve(t *testing.T, student uint64) *LoanDTO {
	t.Helper()
	dto := h.create(t, student)
	out, err := h.uc.Validate(context.Background(), validateInput(dto.ID))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return out
}

func (h *harness) reload(t *testing.T, id uint64) *loan.Loan {
	t.Helper()
	l, err := h.loans.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload %d: %v", id, err)
	}
	return l
}
