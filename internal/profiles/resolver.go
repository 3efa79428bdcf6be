package profiles

import (
	"context"
	"errors"

	"github.com/spiralapp/journal/internal/common"
)

// Resolver turns a human-entered username into the canonical email for
// sign-in and the forgot-email flow.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the email of the first profile whose username matches,
// or common.ErrUsernameNotFound.
func (r *Resolver) Resolve(ctx context.Context, userName string) (string, error) {
	p, err := r.repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUsernameNotFound
		}
		return "", err
	}
	return p.Email, nil
}
