package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"family-health-records/internal/domain/families"
)

type familyRepo struct {
	mu       sync.RWMutex
	byID     map[string]families.Family
	members  map[string]families.Member // por member id
	byFamily map[string][]string        // family id -> member ids
}

func NewFamiliesRepo() families.Repository {
	return &familyRepo{
		byID:     make(map[string]families.Family),
		members:  make(map[string]families.Member),
		byFamily: make(map[string][]string),
	}
}

func (r *familyRepo) Create(ctx context.Context, f families.Family) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(f.ID) == "" {
		return errors.New("family id required")
	}
	if _, exists := r.byID[f.ID]; exists {
		return errors.New("family already exists")
	}
	r.byID[f.ID] = f
	return nil
}

func (r *familyRepo) GetByID(ctx context.Context, id string) (families.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.byID[id]
	if !ok {
		return families.Family{}, families.ErrNotFound
	}
	return f, nil
}

func (r *familyRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]families.Family, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]families.Family, 0)
	for _, f := range r.byID {
		if f.OwnerUserID == ownerUserID {
			out = append(out, f)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *familyRepo) AddMember(ctx context.Context, m families.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(m.ID) == "" {
		return errors.New("member id required")
	}
	if _, ok := r.byID[m.FamilyID]; !ok {
		return families.ErrNotFound
	}
	if _, exists := r.members[m.ID]; exists {
		return errors.New("member already exists")
	}
	r.members[m.ID] = m
	r.byFamily[m.FamilyID] = append(r.byFamily[m.FamilyID], m.ID)
	return nil
}

func (r *familyRepo) UpdateMember(ctx context.Context, m families.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.members[m.ID]
	if !ok || cur.FamilyID != m.FamilyID {
		return families.ErrNotFound
	}
	r.members[m.ID] = m
	return nil
}

func (r *familyRepo) GetMember(ctx context.Context, familyID, memberID string) (families.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[memberID]
	if !ok || m.FamilyID != familyID {
		return families.Member{}, families.ErrNotFound
	}
	return m, nil
}

func (r *familyRepo) ListMembers(ctx context.Context, familyID string) ([]families.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byFamily[familyID]
	out := make([]families.Member, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.members[id])
	}
	return out, nil
}
