package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"family-health-records/internal/domain/families"
	"family-health-records/internal/domain/sharegrants"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, familiesSvc *families.Service, grantsSvc *sharegrants.Service) {
	// Vista agregada de la familia: solo grants sin scope de miembro
	r.Get("/families/{familyID}/records/{kind}", listFamilyRecordsHandler(svc, familiesSvc, grantsSvc))

	r.Route("/families/{familyID}/members/{memberID}/records/{kind}", func(rr chi.Router) {
		rr.Get("/", listMemberRecordsHandler(svc, familiesSvc, grantsSvc))
		rr.Post("/", createRecordHandler(svc, familiesSvc, grantsSvc))
		rr.Patch("/{recordID}", updateRecordHandler(svc, familiesSvc, grantsSvc))
	})
}

type createRecordRequest struct {
	OccurredAt string `json:"occurred_at"` // RFC3339
	Title      string `json:"title"`
	Notes      string `json:"notes"`
}

type updateRecordRequest struct {
	OccurredAt *string `json:"occurred_at"`
	Title      *string `json:"title"`
	Notes      *string `json:"notes"`
}

type recordResponse struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	MemberID   string    `json:"member_id"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Notes      string    `json:"notes"`
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ActorType  ActorType `json:"actor_type"`
	ActorID    string    `json:"actor_id"`
}

// listFamilyRecordsHandler godoc
// @Summary Registros de toda la familia
// @Description Vista agregada por tipo. El owner siempre; un grant necesita scope de familia completa y VIEW sobre el recurso. Acepta link de share en `X-Share-Link` o `?share=`.
// @Tags records
// @Produce json
// @Param familyID path string true "ID de la familia"
// @Param kind path string true "medical-records | documents | prescriptions | vaccinations"
// @Success 200 {array} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /families/{familyID}/records/{kind} [get]
func listFamilyRecordsHandler(svc *Service, familiesSvc *families.Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := KindFromSlug(chi.URLParam(r, "kind"))
		if !ok {
			http.Error(w, "unknown record kind", http.StatusNotFound)
			return
		}
		f, err := familiesSvc.GetByID(r.Context(), chi.URLParam(r, "familyID"))
		if err != nil {
			http.Error(w, "family not found", http.StatusNotFound)
			return
		}

		if _, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID}, kind, sharegrants.ActionView); !ok {
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.FamilyID = f.ID
		filter.Kind = kind

		writeList(w, r, svc, filter)
	}
}

// listMemberRecordsHandler godoc
// @Summary Registros de un miembro
// @Description Owner, o grant (familia completa o del miembro) con VIEW sobre el recurso.
// @Tags records
// @Produce json
// @Param familyID path string true "ID de la familia"
// @Param memberID path string true "ID del miembro"
// @Param kind path string true "medical-records | documents | prescriptions | vaccinations"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Param from query string false "occurred_at mínimo (RFC3339)"
// @Param to query string false "occurred_at máximo (RFC3339)"
// @Param q query string false "Texto libre en título/notas"
// @Success 200 {array} recordResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /families/{familyID}/members/{memberID}/records/{kind} [get]
func listMemberRecordsHandler(svc *Service, familiesSvc *families.Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, m, kind, ok := loadScope(w, r, familiesSvc)
		if !ok {
			return
		}

		if _, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID, MemberID: &m.ID}, kind, sharegrants.ActionView); !ok {
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.FamilyID = f.ID
		filter.MemberID = m.ID
		filter.Kind = kind

		writeList(w, r, svc, filter)
	}
}

// createRecordHandler godoc
// @Summary Crear registro
// @Description Owner, o grant con CREATE sobre el recurso para ese miembro.
// @Tags records
// @Accept json
// @Produce json
// @Param familyID path string true "ID de la familia"
// @Param memberID path string true "ID del miembro"
// @Param kind path string true "medical-records | documents | prescriptions | vaccinations"
// @Param payload body createRecordRequest true "occurred_at en RFC3339"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Router /families/{familyID}/members/{memberID}/records/{kind} [post]
func createRecordHandler(svc *Service, familiesSvc *families.Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, m, kind, ok := loadScope(w, r, familiesSvc)
		if !ok {
			return
		}

		acc, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID, MemberID: &m.ID}, kind, sharegrants.ActionCreate)
		if !ok {
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), f.ID, m.ID, toActor(acc), CreateInput{
			Kind:       kind,
			OccurredAt: t,
			Title:      req.Title,
			Notes:      req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(e))
	}
}

// updateRecordHandler godoc
// @Summary Editar registro
// @Description Owner, o grant con EDIT sobre el recurso para ese miembro.
// @Tags records
// @Accept json
// @Produce json
// @Param familyID path string true "ID de la familia"
// @Param memberID path string true "ID del miembro"
// @Param kind path string true "medical-records | documents | prescriptions | vaccinations"
// @Param recordID path string true "ID del registro"
// @Param payload body updateRecordRequest true "Campos a cambiar"
// @Success 200 {object} recordResponse
// @Failure 400 {string} string "invalid json"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "record not found"
// @Router /families/{familyID}/members/{memberID}/records/{kind}/{recordID} [patch]
func updateRecordHandler(svc *Service, familiesSvc *families.Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, m, kind, ok := loadScope(w, r, familiesSvc)
		if !ok {
			return
		}

		// Permisos primero, para no filtrar si existe el registro
		if _, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID, MemberID: &m.ID}, kind, sharegrants.ActionEdit); !ok {
			return
		}

		current, err := svc.GetByID(r.Context(), chi.URLParam(r, "recordID"))
		if err != nil || current.FamilyID != f.ID || current.MemberID != m.ID || current.Kind != kind {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateRecordRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{Title: req.Title, Notes: req.Notes}
		if req.OccurredAt != nil {
			t, err := time.Parse(time.RFC3339, *req.OccurredAt)
			if err != nil {
				http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
				return
			}
			in.OccurredAt = &t
		}

		updated, err := svc.Update(r.Context(), current.ID, in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "record not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(updated))
	}
}

func loadScope(w http.ResponseWriter, r *http.Request, familiesSvc *families.Service) (families.Family, families.Member, Kind, bool) {
	kind, ok := KindFromSlug(chi.URLParam(r, "kind"))
	if !ok {
		http.Error(w, "unknown record kind", http.StatusNotFound)
		return families.Family{}, families.Member{}, "", false
	}
	f, err := familiesSvc.GetByID(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		http.Error(w, "family not found", http.StatusNotFound)
		return families.Family{}, families.Member{}, "", false
	}
	m, err := familiesSvc.GetMember(r.Context(), f.ID, chi.URLParam(r, "memberID"))
	if err != nil {
		http.Error(w, "member not found", http.StatusNotFound)
		return families.Family{}, families.Member{}, "", false
	}
	return f, m, kind, true
}

func writeList(w http.ResponseWriter, r *http.Request, svc *Service, filter ListFilter) {
	items, err := svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]recordResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toRecordResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("q")); v != "" {
		filter.Query = v
	}
	return filter, nil
}

func toActor(a sharegrants.Accessor) Actor {
	switch a.Kind {
	case sharegrants.AccessorLink:
		return Actor{Type: ActorTypeLink, ID: a.ID}
	case sharegrants.AccessorInvitee:
		return Actor{Type: ActorTypeInvitee, ID: a.ID}
	default:
		return Actor{Type: ActorTypeOwner, ID: a.ID}
	}
}

func toRecordResponse(e Entry) recordResponse {
	return recordResponse{
		ID:         e.ID,
		FamilyID:   e.FamilyID,
		MemberID:   e.MemberID,
		Kind:       e.Kind,
		Title:      e.Title,
		Notes:      e.Notes,
		OccurredAt: e.OccurredAt,
		RecordedAt: e.RecordedAt,
		UpdatedAt:  e.UpdatedAt,
		ActorType:  e.Actor.Type,
		ActorID:    e.Actor.ID,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
