package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Loan struct {
	ID               uint64          `gorm:"primaryKey;column:id;autoIncrement" json:"id"`
	StudentID        uint64          `gorm:"column:student_id;not null;index:idx_loans_student_state" json:"student_id"`
	School           string          `gorm:"column:school;size:100;not null" json:"school"`
	Course           string          `gorm:"column:course;size:100;not null" json:"course"`
	Destination      string          `gorm:"column:destination;size:100;not null" json:"destination"`
	Description      string          `gorm:"column:description;size:2000;not null" json:"description"`
	RequestedValue   decimal.Decimal `gorm:"column:requested_value;type:decimal(65,0);not null" json:"requested_value"`
	CurrentAmount    decimal.Decimal `gorm:"column:current_amount;type:decimal(65,0);not null;default:0" json:"current_amount"`
	RecipientAddress string          `gorm:"column:recipient_address;size:42;not null" json:"recipient_address"`
	State            State           `gorm:"column:state;not null;default:0;index:idx_loans_student_state" json:"state"`
	Identifier       *string         `gorm:"column:identifier;size:128;uniqueIndex" json:"identifier,omitempty"`
	RequestDate      time.Time       `gorm:"column:request_date;autoCreateTime;<-:create" json:"request_date"`
	StateUpdatedAt   time.Time       `gorm:"column:state_updated_at" json:"state_updated_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// RemainingCapacity is how much funding the loan can still accept.
func (l *Loan) RemainingCapacity() decimal.Decimal {
	rest := l.RequestedValue.Sub(l.CurrentAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Transition moves the loan to next if the transition table allows it.
func (l *Loan) Transition(next State, at time.Time) error {
	if !l.State.CanTransitionTo(next) {
		return &TransitionError{From: l.State, To: next}
	}
	l.State = next
	l.StateUpdatedAt = at.UTC()
	return nil
}
