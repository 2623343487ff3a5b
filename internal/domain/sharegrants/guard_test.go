package sharegrants

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"family-health-records/internal/middleware"
	"family-health-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	fx := newFixture(t)

	fx.invited(t, strPtr("anna"), []string{"doc@x.com"}, time.Hour, perm("MEDICAL_RECORD", "VIEW"))
	link := fx.link(t, nil, time.Hour, perm("PROFILE", "VIEW"))

	anna := Target{FamilyID: "fam-1", MemberID: strPtr("anna")}

	// ServeHTTP de la cadena real: ShareLink -> handler que llama Guard
	run := func(claims *auth.Claims, linkHeader string, target Target, resource ResourceType, action ActionType) (*httptest.ResponseRecorder, Accessor, bool) {
		var (
			acc Accessor
			ok  bool
		)
		h := middleware.ShareLink(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, ok = fx.svc.Guard(w, r, "owner-1", target, resource, action)
			if ok {
				w.WriteHeader(http.StatusOK)
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if claims != nil {
			req = req.WithContext(middleware.WithClaims(req.Context(), *claims))
		}
		if linkHeader != "" {
			req.Header.Set(middleware.HeaderShareLink, linkHeader)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec, acc, ok
	}

	t.Run("owner bypasses grants", func(t *testing.T) {
		rec, acc, ok := run(&auth.Claims{UserID: "owner-1"}, "", anna, ResourcePrescription, ActionEdit)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Accessor{Kind: AccessorOwner, ID: "owner-1"}, acc)
	})

	t.Run("invitee allowed", func(t *testing.T) {
		rec, acc, ok := run(&auth.Claims{UserID: "u-9", Email: "doc@x.com"}, "", anna, ResourceMedicalRecord, ActionView)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Accessor{Kind: AccessorInvitee, ID: "doc@x.com"}, acc)
	})

	t.Run("invitee without permission", func(t *testing.T) {
		rec, _, ok := run(&auth.Claims{UserID: "u-9", Email: "doc@x.com"}, "", anna, ResourceMedicalRecord, ActionEdit)
		assert.False(t, ok)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("link holder without identity", func(t *testing.T) {
		rec, acc, ok := run(nil, link.ID, Target{FamilyID: "fam-1"}, ResourceProfile, ActionView)
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, Accessor{Kind: AccessorLink, ID: link.ID}, acc)
	})

	t.Run("no credentials at all", func(t *testing.T) {
		rec, _, ok := run(nil, "", anna, ResourceMedicalRecord, ActionView)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("identity without email", func(t *testing.T) {
		rec, _, ok := run(&auth.Claims{UserID: "u-9"}, "", anna, ResourceMedicalRecord, ActionView)
		assert.False(t, ok)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("store down denies", func(t *testing.T) {
		fx.repo.failReads = true
		defer func() { fx.repo.failReads = false }()

		rec, _, ok := run(&auth.Claims{UserID: "u-9", Email: "doc@x.com"}, "", anna, ResourceMedicalRecord, ActionView)
		assert.False(t, ok)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
