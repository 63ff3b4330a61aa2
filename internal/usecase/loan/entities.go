package loan

import (
	"time"

	"tuichain-backend/internal/domain/loan"
	"tuichain-backend/internal/domain/settlement"

	"github.com/shopspring/decimal"
)

type CreateLoanInput struct {
	StudentID        uint64          `json:"-" validate:"required"`
	School           string          `json:"school" validate:"required,max=100"`
	Course           string          `json:"course" validate:"required,max=100"`
	Destination      string          `json:"destination" validate:"required,max=100"`
	Description      string          `json:"description" validate:"required,max=2000"`
	RequestedValue   decimal.Decimal `json:"requested_value"`
	RecipientAddress string          `json:"recipient_address" validate:"required,eth_addr"`
}

// ValidateInput carries the approval parameters as submitted. They are parsed
// here so malformed values surface as validation errors.
type ValidateInput struct {
	LoanID         uint64
	ValidatorID    uint64
	ExpirationDays string
	FundingFeeRate string
	PaymentFeeRate string
}

type LoanDTO struct {
	ID               uint64          `json:"id"`
	StudentID        uint64          `json:"student_id"`
	School           string          `json:"school"`
	Course           string          `json:"course"`
	Destination      string          `json:"destination"`
	Description      string          `json:"description"`
	RequestedValue   decimal.Decimal `json:"requested_value"`
	CurrentAmount    decimal.Decimal `json:"current_amount"`
	RecipientAddress string          `json:"recipient_address"`
	State            loan.State      `json:"state"`
	Identifier       *string         `json:"identifier,omitempty"`
	RequestDate      time.Time       `json:"request_date"`
	StateUpdatedAt   time.Time       `json:"state_updated_at"`

	// live fields, only for APPROVED loans
	Phase              *settlement.Phase `json:"phase,omitempty"`
	FundedValue        *decimal.Decimal  `json:"funded_value,omitempty"`
	TokenAddress       string            `json:"token_address,omitempty"`
	CurrentMarketPrice *decimal.Decimal  `json:"current_market_price,omitempty"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		ID:               l.ID,
		StudentID:        l.StudentID,
		School:           l.School,
		Course:           l.Course,
		Destination:      l.Destination,
		Description:      l.Description,
		RequestedValue:   l.RequestedValue,
		CurrentAmount:    l.CurrentAmount,
		RecipientAddress: l.RecipientAddress,
		State:            l.State,
		Identifier:       l.Identifier,
		RequestDate:      l.RequestDate,
		StateUpdatedAt:   l.StateUpdatedAt,
	}
}

func (d *LoanDTO) apply(ov *settlement.Overlay) {
	phase := ov.Phase
	funded := ov.FundedValue
	d.Phase = &phase
	d.FundedValue = &funded
	d.TokenAddress = ov.TokenAddress
	d.CurrentMarketPrice = ov.CurrentMarketPrice
}
