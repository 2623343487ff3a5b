package sharegrants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"family-health-records/internal/middleware"
	"family-health-records/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, linkBaseURL string) {
	h := &handler{
		svc:         svc,
		linkBaseURL: strings.TrimRight(strings.TrimSpace(linkBaseURL), "/"),
	}

	// Owner: crear / listar grants de su familia
	r.Route("/families/{familyID}/shares", func(sr chi.Router) {
		sr.Post("/", h.createShare)
		sr.Get("/", h.listShares)
	})

	r.Route("/shares/{grantID}", func(sr chi.Router) {
		sr.Delete("/", h.revokeShare)
		sr.Post("/revoke", h.revokeShare)
	})

	// Quien abre un link ve qué le comparten (sin auth)
	r.Get("/shared/{linkID}", h.resolveLink)

	// Invitado: grants que nombran su email
	r.Get("/me/shares", h.listSharedWithMe)

	// Check interno para otros subsistemas
	r.Post("/access/check", h.checkAccess)
}

type handler struct {
	svc         *Service
	linkBaseURL string
}

// RequestCredential arma la credencial del request: link (si vino) + email autenticado.
func RequestCredential(r *http.Request) Credential {
	var c Credential
	if link, ok := middleware.GetShareLink(r.Context()); ok {
		c.LinkID = link
	}
	if claims, ok := middleware.GetClaims(r.Context()); ok {
		c.Email = claims.Email
	}
	return c
}

type permissionRequest struct {
	ResourceType string   `json:"resource_type" enums:"PROFILE,MEDICAL_RECORD,FILE_DOCUMENT,PRESCRIPTION,VACCINATION"`
	Actions      []string `json:"actions" enums:"VIEW,CREATE,EDIT"`
}

// createShareRequest es el resultado final de la matriz de toggles de la UI.
type createShareRequest struct {
	ScopeMemberID *string             `json:"scope_member_id"`
	Channel       string              `json:"channel" enums:"LINK,INVITED"`
	InvitedEmails []string            `json:"invited_emails"`
	Reason        string              `json:"reason"`
	ExpiresAt     string              `json:"expires_at"` // RFC3339
	Permissions   []permissionRequest `json:"permissions"`
}

type createShareResponse struct {
	ID            string    `json:"id"`
	OwnerFamilyID string    `json:"owner_family_id"`
	ScopeMemberID *string   `json:"scope_member_id,omitempty"`
	Channel       Channel   `json:"channel"`
	ExpiresAt     time.Time `json:"expires_at"`
	Link          string    `json:"link,omitempty"`
}

type shareScope struct {
	FamilyWide bool    `json:"family_wide"`
	MemberID   *string `json:"member_id,omitempty"`
	MemberName string  `json:"member_name,omitempty"`
}

type shareResponse struct {
	ID            string                        `json:"id"`
	FamilyID      string                        `json:"family_id"`
	Channel       Channel                       `json:"channel"`
	Scope         shareScope                    `json:"scope"`
	InvitedEmails []string                      `json:"invited_emails"`
	Reason        string                        `json:"reason,omitempty"`
	ExpiresAt     time.Time                     `json:"expires_at"`
	CreatedAt     time.Time                     `json:"created_at"`
	Status        Status                        `json:"status"`
	Permissions   map[ResourceType][]ActionType `json:"permissions"`
}

type checkAccessRequest struct {
	FamilyID     string  `json:"family_id"`
	MemberID     *string `json:"member_id"`
	ResourceType string  `json:"resource_type"`
	Action       string  `json:"action"`
	LinkID       string  `json:"link_id"`
}

type checkAccessResponse struct {
	Allowed bool `json:"allowed"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// createShare godoc
// @Summary Compartir datos de la familia
// @Description Crea un grant LINK o INVITED con vencimiento y matriz recurso/acción. Solo el owner de la familia.
// @Tags shares
// @Accept json
// @Produce json
// @Param familyID path string true "ID de la familia"
// @Param payload body createShareRequest true "Grant; expires_at en RFC3339"
// @Success 201 {object} createShareResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "family not found"
// @Router /families/{familyID}/shares [post]
func (h *handler) createShare(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	var expiresAt time.Time
	if strings.TrimSpace(req.ExpiresAt) != "" {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ExpiresAt))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expires_at must be RFC3339", Field: "expires_at"})
			return
		}
		expiresAt = t
	}

	perms := make([]PermissionInput, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, PermissionInput{ResourceType: p.ResourceType, Actions: p.Actions})
	}

	g, err := h.svc.CreateGrant(r.Context(), CreateGrantInput{
		RequestedBy:   claims.UserID,
		OwnerFamilyID: chi.URLParam(r, "familyID"),
		ScopeMemberID: req.ScopeMemberID,
		Channel:       req.Channel,
		InvitedEmails: req.InvitedEmails,
		Reason:        req.Reason,
		ExpiresAt:     expiresAt,
		Permissions:   perms,
	})
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
		case IsNotFound(err):
			http.Error(w, "family not found", http.StatusNotFound)
		default:
			h.svc.log.Error("create share grant failed", logger.Err(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	resp := createShareResponse{
		ID:            g.ID,
		OwnerFamilyID: g.OwnerFamilyID,
		ScopeMemberID: g.ScopeMemberID,
		Channel:       g.Channel,
		ExpiresAt:     g.ExpiresAt,
	}
	if g.Channel == ChannelLink && h.linkBaseURL != "" {
		resp.Link = h.linkBaseURL + "/shared/" + g.ID
	}
	writeJSON(w, http.StatusCreated, resp)
}

// listShares godoc
// @Summary Listar grants de la familia
// @Description Activos y vencidos, más nuevos primero. Quien no es owner recibe una lista vacía.
// @Tags shares
// @Produce json
// @Param familyID path string true "ID de la familia"
// @Param member_id query string false "Solo grants con scope en este miembro"
// @Success 200 {array} shareResponse
// @Failure 401 {string} string "unauthorized"
// @Router /families/{familyID}/shares [get]
func (h *handler) listShares(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	familyID := chi.URLParam(r, "familyID")
	var memberID *string
	if m := strings.TrimSpace(r.URL.Query().Get("member_id")); m != "" {
		memberID = &m
	}

	items, err := h.svc.ListGrants(r.Context(), claims.UserID, familyID, memberID)
	if err != nil {
		if IsNotFound(err) {
			// no revelamos si la familia existe
			writeJSON(w, http.StatusOK, []shareResponse{})
			return
		}
		h.svc.log.Error("list share grants failed", logger.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := h.svc.now()
	names := map[string]string{}
	out := make([]shareResponse, 0, len(items))
	for _, g := range items {
		resp := toShareResponse(g, now)
		if g.ScopeMemberID != nil {
			id := *g.ScopeMemberID
			name, cached := names[id]
			if !cached {
				name, _ = h.svc.families.MemberName(r.Context(), g.OwnerFamilyID, id)
				names[id] = name
			}
			resp.Scope.MemberName = name
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// revokeShare godoc
// @Summary Revocar grant
// @Description Borra el grant. Idempotente: un grant inexistente también devuelve 204.
// @Tags shares
// @Param grantID path string true "ID del grant"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "not found"
// @Router /shares/{grantID} [delete]
func (h *handler) revokeShare(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	err := h.svc.Revoke(r.Context(), chi.URLParam(r, "grantID"), claims.UserID)
	if err != nil {
		switch {
		case IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case IsNotFound(err):
			http.Error(w, "not found", http.StatusNotFound)
		default:
			h.svc.log.Error("revoke share grant failed", logger.Err(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) resolveLink(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.ResolveLink(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil {
		if IsNotFound(err) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.svc.log.Error("resolve share link failed", logger.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toShareResponse(g, h.svc.now()))
}

func (h *handler) listSharedWithMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if strings.TrimSpace(claims.Email) == "" {
		writeJSON(w, http.StatusOK, []shareResponse{})
		return
	}

	items, err := h.svc.ListSharedWith(r.Context(), claims.Email)
	if err != nil {
		h.svc.log.Error("list shared grants failed", logger.Err(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := h.svc.now()
	out := make([]shareResponse, 0, len(items))
	for _, g := range items {
		resp := toShareResponse(g, now)
		// el invitado no necesita ver al resto de invitados
		resp.InvitedEmails = []string{strings.ToLower(claims.Email)}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// checkAccess godoc
// @Summary Check de acceso
// @Description Decide allow/deny para (credencial, familia, miembro, recurso, acción). La identidad sale del token; el link puede ir en el body o en X-Share-Link.
// @Tags access
// @Accept json
// @Produce json
// @Param payload body checkAccessRequest true "Check"
// @Success 200 {object} checkAccessResponse
// @Failure 403 {object} checkAccessResponse
// @Failure 500 {string} string "internal error"
// @Router /access/check [post]
func (h *handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	var req checkAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return
	}

	cred := RequestCredential(r)
	if link := strings.TrimSpace(req.LinkID); link != "" {
		cred.LinkID = link
	}

	d, err := h.svc.Evaluate(r.Context(), cred, Target{
		FamilyID: req.FamilyID,
		MemberID: req.MemberID,
	}, ResourceType(strings.ToUpper(strings.TrimSpace(req.ResourceType))), ActionType(strings.ToUpper(strings.TrimSpace(req.Action))))
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !d.Allowed() {
		writeJSON(w, http.StatusForbidden, checkAccessResponse{Allowed: false})
		return
	}
	writeJSON(w, http.StatusOK, checkAccessResponse{Allowed: true})
}

func toShareResponse(g ShareGrant, now time.Time) shareResponse {
	emails := g.InvitedEmails
	if emails == nil {
		emails = []string{}
	}
	return shareResponse{
		ID:       g.ID,
		FamilyID: g.OwnerFamilyID,
		Channel:  g.Channel,
		Scope: shareScope{
			FamilyWide: g.FamilyWide(),
			MemberID:   g.ScopeMemberID,
		},
		InvitedEmails: emails,
		Reason:        g.Reason,
		ExpiresAt:     g.ExpiresAt,
		CreatedAt:     g.CreatedAt,
		Status:        g.Status(now),
		Permissions:   g.PermissionMap(),
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
