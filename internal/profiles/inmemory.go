package profiles

import (
	"context"
	"sync"
	"time"

	"github.com/spiralapp/journal/internal/common"
)

// InMemoryRepository keeps profiles in a map. Used by tests and by the
// CLI when no database is configured.
type InMemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*Profile
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Profile)}
}

func (r *InMemoryRepository) Create(ctx context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile.CreatedAt = time.Now()
	c := *profile
	r.byID[profile.ID] = &c
	return nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *InMemoryRepository) GetByUserName(ctx context.Context, userName string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byID {
		if p.UserName == userName {
			c := *p
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *InMemoryRepository) UserNameExists(ctx context.Context, userName string) (bool, error) {
	_, err := r.GetByUserName(ctx, userName)
	if err != nil {
		if err == common.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *InMemoryRepository) UpdateUserName(ctx context.Context, id, userName string) error {
	return r.update(id, func(p *Profile) { p.UserName = userName })
}

func (r *InMemoryRepository) UpdateFullName(ctx context.Context, id, fullName string) error {
	return r.update(id, func(p *Profile) { p.FullName = fullName })
}

func (r *InMemoryRepository) UpdateEmail(ctx context.Context, id, email string) error {
	return r.update(id, func(p *Profile) { p.Email = email })
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *InMemoryRepository) update(id string, fn func(*Profile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(p)
	return nil
}
