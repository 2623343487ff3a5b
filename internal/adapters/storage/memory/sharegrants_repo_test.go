package memory_test

import (
	"context"
	"testing"
	"time"

	"family-health-records/internal/adapters/storage/memory"
	"family-health-records/internal/domain/sharegrants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)

func grant(id, family string, created time.Time, emails ...string) sharegrants.ShareGrant {
	ch := sharegrants.ChannelLink
	if len(emails) > 0 {
		ch = sharegrants.ChannelInvited
	}
	return sharegrants.ShareGrant{
		ID:            id,
		OwnerFamilyID: family,
		Channel:       ch,
		InvitedEmails: emails,
		CreatedAt:     created,
		ExpiresAt:     created.Add(time.Hour),
		Permissions: []sharegrants.PermissionEntry{
			{ResourceType: sharegrants.ResourceProfile, Actions: []sharegrants.ActionType{sharegrants.ActionView}},
		},
	}
}

func TestShareGrantsRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewShareGrantsRepo()

	require.NoError(t, repo.Create(ctx, grant("g1", "fam-1", t0)))
	require.NoError(t, repo.Create(ctx, grant("g2", "fam-1", t0.Add(time.Minute), "doc@x.com")))
	require.NoError(t, repo.Create(ctx, grant("g3", "fam-2", t0, "doc@x.com")))

	assert.Error(t, repo.Create(ctx, grant("g1", "fam-1", t0)), "duplicate id")
	assert.Error(t, repo.Create(ctx, grant("", "fam-1", t0)), "empty id")

	items, err := repo.ListByFamily(ctx, "fam-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "g2", items[0].ID)
	assert.Equal(t, "g1", items[1].ID)

	byEmail, err := repo.ListByInvitedEmail(ctx, "DOC@x.com")
	require.NoError(t, err)
	assert.Len(t, byEmail, 2)

	deleted, err := repo.Delete(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.GetByID(ctx, "g1")
	assert.ErrorIs(t, err, sharegrants.ErrGrantNotFound)
}

func TestShareGrantsRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewShareGrantsRepo()

	g := grant("g1", "fam-1", t0, "doc@x.com")
	require.NoError(t, repo.Create(ctx, g))

	// mutar lo que se pasó o lo que se leyó no toca el store
	g.InvitedEmails[0] = "evil@x.com"
	got, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	got.Permissions[0].Actions[0] = sharegrants.ActionEdit

	again, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc@x.com"}, again.InvitedEmails)
	assert.Equal(t, []sharegrants.ActionType{sharegrants.ActionView}, again.Permissions[0].Actions)
}

func TestShareGrantsRepo_DeleteExpiredBefore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewShareGrantsRepo()

	require.NoError(t, repo.Create(ctx, grant("old", "fam-1", t0)))                     // vence t0+1h
	require.NoError(t, repo.Create(ctx, grant("edge", "fam-1", t0.Add(time.Hour))))     // vence t0+2h
	require.NoError(t, repo.Create(ctx, grant("fresh", "fam-1", t0.Add(5*time.Hour)))) // vence t0+6h

	n, err := repo.DeleteExpiredBefore(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, err := repo.ListByFamily(ctx, "fam-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].ID)
}
