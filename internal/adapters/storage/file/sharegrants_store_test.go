package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"family-health-records/internal/adapters/storage/file"
	"family-health-records/internal/domain/sharegrants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

func sampleGrant(id string, created time.Time) sharegrants.ShareGrant {
	member := "anna"
	return sharegrants.ShareGrant{
		ID:            id,
		OwnerFamilyID: "fam-1",
		ScopeMemberID: &member,
		Channel:       sharegrants.ChannelInvited,
		InvitedEmails: []string{"doc@x.com"},
		Reason:        "pediatra",
		CreatedAt:     created,
		ExpiresAt:     created.Add(time.Hour),
		Permissions: []sharegrants.PermissionEntry{
			{ResourceType: sharegrants.ResourceProfile, Actions: []sharegrants.ActionType{sharegrants.ActionView}},
			{ResourceType: sharegrants.ResourceVaccination, Actions: []sharegrants.ActionType{sharegrants.ActionView, sharegrants.ActionCreate}},
		},
	}
}

func TestShareGrantsStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "grants.yaml")

	store, err := file.NewShareGrantsStore(file.WithPath(path))
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	g := sampleGrant("g1", t0)
	require.NoError(t, store.Create(ctx, g))
	require.NoError(t, store.Create(ctx, sampleGrant("g2", t0.Add(time.Minute))))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := file.NewShareGrantsStore(file.WithPath(path))
	require.NoError(t, err)

	got, err := reopened.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, g, got)

	items, err := reopened.ListByInvitedEmail(ctx, "doc@x.com")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "g2", items[0].ID)
}

func TestShareGrantsStore_DeleteAndPurge(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "grants.yaml")

	store, err := file.NewShareGrantsStore(file.WithPath(path), file.WithFilePermissions(0o640))
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, sampleGrant("g1", t0)))
	require.NoError(t, store.Create(ctx, sampleGrant("g2", t0.Add(3*time.Hour))))

	deleted, err := store.Delete(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err := store.DeleteExpiredBefore(ctx, t0.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reopened, err := file.NewShareGrantsStore(file.WithPath(path))
	require.NoError(t, err)
	items, err := reopened.ListByFamily(ctx, "fam-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestShareGrantsStore_MissingFileIsEmpty(t *testing.T) {
	store, err := file.NewShareGrantsStore(file.WithPath(filepath.Join(t.TempDir(), "none.yaml")))
	require.NoError(t, err)

	_, err = store.GetByID(context.Background(), "g1")
	assert.ErrorIs(t, err, sharegrants.ErrGrantNotFound)
}

func TestShareGrantsStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grants: [::not yaml"), 0o600))

	_, err := file.NewShareGrantsStore(file.WithPath(path))
	assert.Error(t, err)
}
