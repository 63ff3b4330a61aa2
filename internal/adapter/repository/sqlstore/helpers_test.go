package sqlstore

import (
	"testing"
	"time"

	loanDomain "tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/testutil/dbtest"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB { return dbtest.Open(t) }

func makeLoan(studentID uint64, requested int64) *loanDomain.Loan {
	return &loanDomain.Loan{
		StudentID:        studentID,
		School:           "FEUP",
		Course:           "Informatics",
		Destination:      "Porto",
		Description:      "tuition",
		RequestedValue:   decimal.NewFromInt(requested),
		CurrentAmount:    decimal.Zero,
		RecipientAddress: "0x00000000000000000000000000000000000000aa",
		State:            loanDomain.StatePending,
		StateUpdatedAt:   time.Now().UTC(),
	}
}
