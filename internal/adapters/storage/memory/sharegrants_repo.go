package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"family-health-records/internal/domain/sharegrants"
)

// grantRepo guarda copias: lo que sale del store nunca comparte slices con él.
// El lock de escritura hace que Delete sea atómico respecto a los lectores.
type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]sharegrants.ShareGrant
}

func NewShareGrantsRepo() sharegrants.Repository {
	return &grantRepo{
		byID: make(map[string]sharegrants.ShareGrant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g sharegrants.ShareGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g.Clone()
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (sharegrants.ShareGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return sharegrants.ShareGrant{}, sharegrants.ErrGrantNotFound
	}
	return g.Clone(), nil
}

func (r *grantRepo) ListByFamily(ctx context.Context, familyID string) ([]sharegrants.ShareGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharegrants.ShareGrant, 0)
	for _, g := range r.byID {
		if g.OwnerFamilyID == familyID {
			out = append(out, g.Clone())
		}
	}
	sharegrants.SortNewestFirst(out)
	return out, nil
}

func (r *grantRepo) ListByInvitedEmail(ctx context.Context, email string) ([]sharegrants.ShareGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharegrants.ShareGrant, 0)
	for _, g := range r.byID {
		if g.Invites(email) {
			out = append(out, g.Clone())
		}
	}
	sharegrants.SortNewestFirst(out)
	return out, nil
}

func (r *grantRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *grantRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, g := range r.byID {
		if !g.ExpiresAt.After(cutoff) {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
