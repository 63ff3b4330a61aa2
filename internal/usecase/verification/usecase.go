package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tuichain-backend/internal/domain/errs"
	"tuichain-backend/internal/domain/verification"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Usecase struct {
	provider verification.Provider
	repo     verification.Repository
	log      zerolog.Logger
}

func NewUsecase(provider verification.Provider, repo verification.Repository, log zerolog.Logger) *Usecase {
	return &Usecase{provider: provider, repo: repo, log: log}
}

// RequestIntent opens a verification intent at the provider for the user and
// records it as not yet validated.
func (u *Usecase) RequestIntent(ctx context.Context, userID uint64) (*verification.Intent, error) {
	in, err := u.provider.CreateIntent(ctx, strconv.FormatUint(userID, 10))
	if err != nil {
		return nil, &errs.ProviderError{Op: "create_intent", Err: err}
	}
	if in.IntentID == "" || in.RedirectURL == "" {
		return nil, &errs.ProviderError{Op: "create_intent", Err: errors.New("intent or redirect link missing")}
	}
	if err := u.repo.Upsert(ctx, &verification.IDVerification{
		UserID:   userID,
		IntentID: in.IntentID,
		PersonID: in.PersonID,
	}); err != nil {
		return nil, err
	}
	u.log.Info().Uint64("user_id", userID).Str("intent_id", in.IntentID).Msg("verification requested")
	return in, nil
}

// CheckIntent asks the provider for the outcome of the user's intent and
// marks the user validated once it is verified.
func (u *Usecase) CheckIntent(ctx context.Context, userID uint64, intentID string) (*verification.IntentStatus, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, fmt.Errorf("%w: intent id is required", errs.ErrValidation)
	}
	v, err := u.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no verification requested", errs.ErrNotFound)
		}
		return nil, err
	}
	if v.IntentID != intentID {
		return nil, fmt.Errorf("%w: intent %s", errs.ErrNotFound, intentID)
	}

	st, err := u.provider.GetIntent(ctx, intentID)
	if err != nil {
		return nil, &errs.ProviderError{Op: "get_intent", Err: err}
	}
	if st.Status == verification.StatusVerified && !v.Validated {
		if err := u.repo.Upsert(ctx, &verification.IDVerification{
			UserID:    userID,
			IntentID:  v.IntentID,
			PersonID:  v.PersonID,
			Validated: true,
		}); err != nil {
			return nil, err
		}
		u.log.Info().Uint64("user_id", userID).Str("intent_id", intentID).Msg("identity verified")
	}
	return st, nil
}

// Status returns the stored verification of the user.
func (u *Usecase) Status(ctx context.Context, userID uint64) (*verification.IDVerification, error) {
	v, err := u.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no verification requested", errs.ErrNotFound)
		}
		return nil, err
	}
	return v, nil
}
