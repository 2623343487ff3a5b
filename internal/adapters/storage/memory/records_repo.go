package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"family-health-records/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.Entry
}

func NewRecordsRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.Entry),
	}
}

func (r *recordRepo) Create(ctx context.Context, e records.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[e.ID] = e
	return nil
}

func (r *recordRepo) Update(ctx context.Context, e records.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[e.ID]; !exists {
		return records.ErrNotFound
	}
	r.byID[e.ID] = e
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return records.Entry{}, records.ErrNotFound
	}
	return e, nil
}

func (r *recordRepo) List(ctx context.Context, filter records.ListFilter) ([]records.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]records.Entry, 0)
	for _, e := range r.byID {
		if e.FamilyID != filter.FamilyID || e.Kind != filter.Kind {
			continue
		}
		if filter.MemberID != "" && e.MemberID != filter.MemberID {
			continue
		}
		if filter.From != nil && e.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.OccurredAt.After(*filter.To) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(e.Notes), q) {
			continue
		}
		out = append(out, e)
	}

	// Timeline: más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
