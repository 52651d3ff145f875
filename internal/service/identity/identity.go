package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kampayn/kampayn-be/internal/apperrors"
	"github.com/Kampayn/kampayn-be/internal/models"
)

// Verifier checks identity assertion issued by a third party provider
// Every failure wraps apperrors.ErrIdentityTokenInvalid
type Verifier interface {
	Verify(ctx context.Context, idToken string) (models.Identity, error)
}

// Disabled verifier is used when identity provider is not configured
type Disabled struct{}

func (Disabled) Verify(context.Context, string) (models.Identity, error) {
	return models.Identity{}, invalid(errors.New("identity provider is not configured"))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrIdentityTokenInvalid, err)
}
