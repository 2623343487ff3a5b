package sharegrants

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errStoreDown = errors.New("repo: unavailable")

type testRepo struct {
	mu   sync.RWMutex
	byID map[string]ShareGrant

	// failReads simula el store caído
	failReads bool
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]ShareGrant{}}
}

func (r *testRepo) Create(ctx context.Context, g ShareGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[g.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[g.ID] = g.Clone()
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (ShareGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failReads {
		return ShareGrant{}, errStoreDown
	}
	g, ok := r.byID[id]
	if !ok {
		return ShareGrant{}, ErrGrantNotFound
	}
	return g.Clone(), nil
}

func (r *testRepo) ListByFamily(ctx context.Context, familyID string) ([]ShareGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failReads {
		return nil, errStoreDown
	}
	out := make([]ShareGrant, 0)
	for _, g := range r.byID {
		if g.OwnerFamilyID == familyID {
			out = append(out, g.Clone())
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *testRepo) ListByInvitedEmail(ctx context.Context, email string) ([]ShareGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failReads {
		return nil, errStoreDown
	}
	out := make([]ShareGrant, 0)
	for _, g := range r.byID {
		if g.Invites(email) {
			out = append(out, g.Clone())
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *testRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
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

func (r *testRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// -------------------------
// Test family directory
// -------------------------

type testFamilies struct {
	owners  map[string]string            // family -> owner user
	members map[string]map[string]string // family -> member -> name
	fail    bool
}

func newTestFamilies() *testFamilies {
	return &testFamilies{
		owners: map[string]string{
			"fam-1": "owner-1",
			"fam-2": "owner-2",
		},
		members: map[string]map[string]string{
			"fam-1": {"anna": "Anna", "ben": "Ben"},
			"fam-2": {"carl": "Carl"},
		},
	}
}

func (f *testFamilies) OwnerOf(ctx context.Context, familyID string) (string, error) {
	if f.fail {
		return "", errStoreDown
	}
	o, ok := f.owners[familyID]
	if !ok {
		return "", errors.New("family not found")
	}
	return o, nil
}

func (f *testFamilies) MemberOf(ctx context.Context, familyID, memberID string) (bool, error) {
	if f.fail {
		return false, errStoreDown
	}
	_, ok := f.members[familyID][memberID]
	return ok, nil
}

func (f *testFamilies) MemberName(ctx context.Context, familyID, memberID string) (string, error) {
	name, ok := f.members[familyID][memberID]
	if !ok {
		return "", errors.New("member not found")
	}
	return name, nil
}

// -------------------------
// Fixtures
// -------------------------

var testNow = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *testRepo
	families *testFamilies
	svc      *Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fx := &fixture{
		repo:     newTestRepo(),
		families: newTestFamilies(),
		now:      testNow,
	}
	fx.svc = NewService(fx.repo, fx.families, nil)
	fx.svc.now = func() time.Time { return fx.now }
	return fx
}

func strPtr(s string) *string { return &s }

func perm(resource string, actions ...string) PermissionInput {
	return PermissionInput{ResourceType: resource, Actions: actions}
}

func (fx *fixture) invited(t *testing.T, member *string, emails []string, ttl time.Duration, perms ...PermissionInput) ShareGrant {
	t.Helper()

	g, err := fx.svc.CreateGrant(context.Background(), CreateGrantInput{
		RequestedBy:   "owner-1",
		OwnerFamilyID: "fam-1",
		ScopeMemberID: member,
		Channel:       "INVITED",
		InvitedEmails: emails,
		ExpiresAt:     fx.now.Add(ttl),
		Permissions:   perms,
	})
	if err != nil {
		t.Fatalf("create invited grant: %v", err)
	}
	return g
}

func (fx *fixture) link(t *testing.T, member *string, ttl time.Duration, perms ...PermissionInput) ShareGrant {
	t.Helper()

	g, err := fx.svc.CreateGrant(context.Background(), CreateGrantInput{
		RequestedBy:   "owner-1",
		OwnerFamilyID: "fam-1",
		ScopeMemberID: member,
		Channel:       "LINK",
		ExpiresAt:     fx.now.Add(ttl),
		Permissions:   perms,
	})
	if err != nil {
		t.Fatalf("create link grant: %v", err)
	}
	return g
}
