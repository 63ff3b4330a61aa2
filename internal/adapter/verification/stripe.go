package verification

import (
	"context"
	"fmt"

	domain "tuichain-backend/internal/domain/verification"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

type StripeConfig struct {
	SecretKey string
	ReturnURL string
	// BackendURL overrides the Stripe API base URL. Tests point it at a fake.
	BackendURL string
}

// Stripe runs identity checks through Stripe Identity verification sessions.
type Stripe struct {
	client    *stripe.Client
	returnURL string
	log       zerolog.Logger
}

var _ domain.Provider = (*Stripe)(nil)

const subjectKey = "subject_id"

func NewStripe(cfg StripeConfig, log zerolog.Logger) *Stripe {
	var opts []stripe.ClientOption
	if cfg.BackendURL != "" {
		opts = append(opts, stripe.WithBackends(stripe.NewBackendsWithConfig(&stripe.BackendConfig{
			URL: stripe.String(cfg.BackendURL),
		})))
	}
	return &Stripe{
		client:    stripe.NewClient(cfg.SecretKey, opts...),
		returnURL: cfg.ReturnURL,
		log:       log,
	}
}

func (s *Stripe) CreateIntent(ctx context.Context, subjectID string) (*domain.Intent, error) {
	params := &stripe.IdentityVerificationSessionCreateParams{
		Type: stripe.String("document"),
	}
	if s.returnURL != "" {
		params.ReturnURL = stripe.String(s.returnURL)
	}
	params.AddMetadata(subjectKey, subjectID)

	sess, err := s.client.V1IdentityVerificationSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create verification session: %w", err)
	}
	s.log.Info().Str("intent_id", sess.ID).Str("subject", subjectID).Msg("verification session created")
	return &domain.Intent{
		IntentID:    sess.ID,
		PersonID:    subjectID,
		RedirectURL: sess.URL,
	}, nil
}

func (s *Stripe) GetIntent(ctx context.Context, intentID string) (*domain.IntentStatus, error) {
	sess, err := s.client.V1IdentityVerificationSessions.Retrieve(ctx, intentID, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve verification session %s: %w", intentID, err)
	}
	return &domain.IntentStatus{
		IntentID: sess.ID,
		Status:   string(sess.Status),
	}, nil
}
