package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"family-health-records/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type caller struct {
	UserID string
	Email  string
	Link   string
}

var (
	owner = caller{UserID: "owner-1", Email: "owner@example.com"}
	guest = caller{UserID: "guest-1", Email: "Guest@Example.com"}
	other = caller{UserID: "other-1", Email: "other@example.com"}
	anon  = caller{}
)

func TestHTTP_EndToEnd_InvitedMemberScope(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	// 1) Owner crea familia y dos miembros
	familyID := createFamily(t, ts.URL, owner, "Casa")
	annaID := addMember(t, ts.URL, owner, familyID, "Anna", "child")
	benID := addMember(t, ts.URL, owner, familyID, "Ben", "spouse")

	annaVaccines := "/families/" + familyID + "/members/" + annaID + "/records/vaccinations"
	benVaccines := "/families/" + familyID + "/members/" + benID + "/records/vaccinations"

	// 2) Sin grant: 403 con identidad, 401 sin nada
	{
		st, _ := doReq(t, ts.URL, "GET", annaVaccines, guest, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before grant, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", annaVaccines, anon, nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without credentials, got %d", st)
		}
	}

	// 3) Owner invita a guest (en minúsculas) solo sobre Anna
	grantID := createShare(t, ts.URL, owner, familyID, map[string]any{
		"scope_member_id": annaID,
		"channel":         "INVITED",
		"invited_emails":  []string{"guest@example.com"},
		"reason":          "pediatra",
		"expires_at":      time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
		"permissions": []map[string]any{
			{"resource_type": "VACCINATION", "actions": []string{"VIEW", "CREATE"}},
		},
	})

	// 4) Guest ve y crea vacunas de Anna
	{
		st, body := doReq(t, ts.URL, "GET", annaVaccines, guest, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list by invitee, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", annaVaccines, guest, map[string]any{
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
			"title":       "Triple viral",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create by invitee, got %d body=%s", st, string(body))
		}
		var rec struct {
			ActorType string `json:"actor_type"`
			ActorID   string `json:"actor_id"`
		}
		require.NoError(t, json.Unmarshal(body, &rec))
		assert.Equal(t, "INVITED_USER", rec.ActorType)
		assert.Equal(t, "guest@example.com", rec.ActorID)
	}

	// 5) Fuera del scope: otro miembro, vista agregada y otros recursos
	{
		st, _ := doReq(t, ts.URL, "GET", benVaccines, guest, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 on other member, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/families/"+familyID+"/records/vaccinations", guest, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 on family aggregate view, got %d", st)
		}
		st, _ = doReq(t, ts.URL, "GET", "/families/"+familyID+"/members/"+annaID+"/records/prescriptions", guest, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 on ungranted resource, got %d", st)
		}
	}

	// 6) /me/shares muestra el grant
	{
		st, body := doReq(t, ts.URL, "GET", "/me/shares", guest, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		var items []struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(body, &items))
		require.Len(t, items, 1)
		assert.Equal(t, grantID, items[0].ID)
	}

	// 7) Check explícito
	{
		st, body := doReq(t, ts.URL, "POST", "/access/check", guest, map[string]any{
			"family_id":     familyID,
			"member_id":     annaID,
			"resource_type": "VACCINATION",
			"action":        "VIEW",
		})
		assert.Equal(t, http.StatusOK, st)
		assert.JSONEq(t, `{"allowed":true}`, string(body))

		st, body = doReq(t, ts.URL, "POST", "/access/check", guest, map[string]any{
			"family_id":     familyID,
			"member_id":     annaID,
			"resource_type": "VACCINATION",
			"action":        "EDIT",
		})
		assert.Equal(t, http.StatusForbidden, st)
		assert.JSONEq(t, `{"allowed":false}`, string(body))
	}

	// 8) Solo el owner revoca; revocar es idempotente
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/shares/"+grantID, guest, nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 revoke by non-owner, got %d", st)
		}
		st, body := doReq(t, ts.URL, "DELETE", "/shares/"+grantID, owner, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 revoke by owner, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "POST", "/shares/"+grantID+"/revoke", owner, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 on second revoke, got %d", st)
		}
	}

	// 9) Acceso perdido inmediatamente
	{
		st, _ := doReq(t, ts.URL, "GET", annaVaccines, guest, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after revoke, got %d", st)
		}
	}
}

func TestHTTP_LinkShare_FamilyWideProfile(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{ShareLinkBaseURL: "https://app.example.com"}))
	defer ts.Close()

	familyID := createFamily(t, ts.URL, owner, "Casa")
	annaID := addMember(t, ts.URL, owner, familyID, "Anna", "child")

	st, body := doReq(t, ts.URL, "POST", "/families/"+familyID+"/shares", owner, map[string]any{
		"channel":    "LINK",
		"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"permissions": []map[string]any{
			{"resource_type": "PROFILE", "actions": []string{"VIEW"}},
		},
	})
	require.Equal(t, http.StatusCreated, st, string(body))

	var created struct {
		ID   string `json:"id"`
		Link string `json:"link"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "https://app.example.com/shared/"+created.ID, created.Link)

	link := caller{Link: created.ID}

	// El portador del link ve perfiles, sin identidad
	st, _ = doReq(t, ts.URL, "GET", "/families/"+familyID+"/members", link, nil)
	assert.Equal(t, http.StatusOK, st)
	st, _ = doReq(t, ts.URL, "GET", "/families/"+familyID+"/members/"+annaID+"?share="+created.ID, anon, nil)
	assert.Equal(t, http.StatusOK, st)

	// Pero no edita
	st, _ = doReq(t, ts.URL, "PATCH", "/families/"+familyID+"/members/"+annaID, link, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, st)

	// Un link inventado no sirve
	st, _ = doReq(t, ts.URL, "GET", "/families/"+familyID+"/members", caller{Link: "not-a-grant"}, nil)
	assert.Equal(t, http.StatusForbidden, st)

	// Resolución del link
	st, body = doReq(t, ts.URL, "GET", "/shared/"+created.ID, anon, nil)
	require.Equal(t, http.StatusOK, st)
	var resolved struct {
		Status      string              `json:"status"`
		Permissions map[string][]string `json:"permissions"`
		Scope       struct {
			FamilyWide bool `json:"family_wide"`
		} `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(body, &resolved))
	assert.Equal(t, "ACTIVE", resolved.Status)
	assert.True(t, resolved.Scope.FamilyWide)
	assert.Equal(t, map[string][]string{"PROFILE": {"VIEW"}}, resolved.Permissions)

	st, _ = doReq(t, ts.URL, "GET", "/shared/unknown", anon, nil)
	assert.Equal(t, http.StatusNotFound, st)
}

func TestHTTP_CreateShare_Validation(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	familyID := createFamily(t, ts.URL, owner, "Casa")
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	viewProfile := []map[string]any{{"resource_type": "PROFILE", "actions": []string{"VIEW"}}}

	cases := []struct {
		name    string
		who     caller
		payload map[string]any
		status  int
		field   string
	}{
		{
			name:    "invited without emails",
			who:     owner,
			payload: map[string]any{"channel": "INVITED", "expires_at": future, "permissions": viewProfile},
			status:  http.StatusBadRequest,
			field:   "invited_emails",
		},
		{
			name: "expiry in the past",
			who:  owner,
			payload: map[string]any{
				"channel": "LINK", "permissions": viewProfile,
				"expires_at": time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
			},
			status: http.StatusBadRequest,
			field:  "expires_at",
		},
		{
			name: "unknown resource",
			who:  owner,
			payload: map[string]any{
				"channel": "LINK", "expires_at": future,
				"permissions": []map[string]any{{"resource_type": "XRAY", "actions": []string{"VIEW"}}},
			},
			status: http.StatusBadRequest,
			field:  "permissions",
		},
		{
			name:    "unknown member scope",
			who:     owner,
			payload: map[string]any{"channel": "LINK", "scope_member_id": "nope", "expires_at": future, "permissions": viewProfile},
			status:  http.StatusBadRequest,
			field:   "scope_member_id",
		},
		{
			name:    "not the owner",
			who:     other,
			payload: map[string]any{"channel": "LINK", "expires_at": future, "permissions": viewProfile},
			status:  http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, "POST", "/families/"+familyID+"/shares", tc.who, tc.payload)
			require.Equal(t, tc.status, st, string(body))
			if tc.field != "" {
				var resp struct {
					Field string `json:"field"`
				}
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, tc.field, resp.Field)
			}
		})
	}

	// Nada quedó persistido
	st, body := doReq(t, ts.URL, "GET", "/families/"+familyID+"/shares", owner, nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `[]`, string(body))
}

func TestHTTP_ListShares_NonOwnerSeesNothing(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	familyID := createFamily(t, ts.URL, owner, "Casa")
	createShare(t, ts.URL, owner, familyID, map[string]any{
		"channel":    "LINK",
		"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"permissions": []map[string]any{
			{"resource_type": "MEDICAL_RECORD", "actions": []string{"VIEW"}},
		},
	})

	st, body := doReq(t, ts.URL, "GET", "/families/"+familyID+"/shares", owner, nil)
	require.Equal(t, http.StatusOK, st)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(body, &mine))
	assert.Len(t, mine, 1)

	st, body = doReq(t, ts.URL, "GET", "/families/"+familyID+"/shares", other, nil)
	require.Equal(t, http.StatusOK, st)
	assert.JSONEq(t, `[]`, string(body))

	st, _ = doReq(t, ts.URL, "GET", "/families/"+familyID+"/shares", anon, nil)
	assert.Equal(t, http.StatusUnauthorized, st)
}

func createFamily(t *testing.T, baseURL string, who caller, name string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/families", who, map[string]any{"name": name})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create family, got %d body=%s", st, string(body))
	}
	return decodeID(t, body)
}

func addMember(t *testing.T, baseURL string, who caller, familyID, name, relationship string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/families/"+familyID+"/members", who, map[string]any{
		"name":         name,
		"relationship": relationship,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 add member, got %d body=%s", st, string(body))
	}
	return decodeID(t, body)
}

func createShare(t *testing.T, baseURL string, who caller, familyID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/families/"+familyID+"/shares", who, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create share, got %d body=%s", st, string(body))
	}
	return decodeID(t, body)
}

func decodeID(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, who caller, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.UserID != "" {
		req.Header.Set("X-Debug-User-ID", who.UserID)
	}
	if who.Email != "" {
		req.Header.Set("X-Debug-User-Email", who.Email)
	}
	if who.Link != "" {
		req.Header.Set("X-Share-Link", who.Link)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
