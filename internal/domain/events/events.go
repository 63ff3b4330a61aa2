package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	LoanCreated           Type = "loan.created"
	LoanWithdrawn         Type = "loan.withdrawn"
	LoanRejected          Type = "loan.rejected"
	LoanApproved          Type = "loan.approved"
	LoanCancelRequested   Type = "loan.cancel_requested"
	LoanFinalizeRequested Type = "loan.finalize_requested"
	LoanDeleted           Type = "loan.deleted"
	LoanPhaseChanged      Type = "loan.phase_changed"
	InvestmentCreated     Type = "investment.created"
	DocumentUploaded      Type = "document.uploaded"
	DocumentApproved      Type = "document.approved"
	DocumentRejected      Type = "document.rejected"
)

// Event is published after the ledger change it describes has committed.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	LoanID     uint64            `json:"loan_id"`
	ActorID    uint64            `json:"actor_id,omitempty"`
	State      string            `json:"state,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// New stamps an event with a fresh id and the current time.
func New(t Type, loanID, actorID uint64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		LoanID:     loanID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) With(key, value string) Event {
	attrs := make(map[string]string, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	e.Attributes = attrs
	return e
}
