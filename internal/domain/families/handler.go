package families

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"family-health-records/internal/domain/sharegrants"
	"family-health-records/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, grantsSvc *sharegrants.Service) {
	r.Route("/families", func(fr chi.Router) {
		fr.Post("/", createFamilyHandler(svc))
		fr.Get("/", listFamiliesHandler(svc))
		fr.Get("/{familyID}", getFamilyHandler(svc))

		// Miembros (owner, o delegado con PROFILE)
		fr.Post("/{familyID}/members", addMemberHandler(svc))
		fr.Get("/{familyID}/members", listMembersHandler(svc, grantsSvc))
		fr.Get("/{familyID}/members/{memberID}", getMemberHandler(svc, grantsSvc))
		fr.Patch("/{familyID}/members/{memberID}", updateMemberHandler(svc, grantsSvc))
	})
}

type createFamilyRequest struct {
	Name string `json:"name"`
}

type familyResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type addMemberRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship" enums:"self,spouse,child,parent,sibling,other"`
	BirthDate    string `json:"birth_date"` // YYYY-MM-DD opcional
	BloodType    string `json:"blood_type"`
	Notes        string `json:"notes"`
}

type updateMemberRequest struct {
	Name         *string `json:"name"`
	Relationship *string `json:"relationship"`
	BloodType    *string `json:"blood_type"`
	Notes        *string `json:"notes"`
}

type memberResponse struct {
	ID           string       `json:"id"`
	FamilyID     string       `json:"family_id"`
	Name         string       `json:"name"`
	Relationship Relationship `json:"relationship"`
	BirthDate    *time.Time   `json:"birth_date,omitempty"`
	BloodType    string       `json:"blood_type,omitempty"`
	Notes        string       `json:"notes"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func createFamilyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createFamilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		f, err := svc.Create(r.Context(), claims.UserID, req.Name)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "name required", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, toFamilyResponse(f))
	}
}

func listFamiliesHandler(svc *Service) http.HandlerFunc {
	// Owner-only; lo compartido se ve por /me/shares
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]familyResponse, 0, len(items))
		for _, f := range items {
			out = append(out, toFamilyResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getFamilyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		f, err := svc.GetByID(r.Context(), chi.URLParam(r, "familyID"))
		if err != nil || f.OwnerUserID != claims.UserID {
			http.Error(w, "family not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toFamilyResponse(f))
	}
}

func addMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		familyID := chi.URLParam(r, "familyID")
		f, err := svc.GetByID(r.Context(), familyID)
		if err != nil || f.OwnerUserID != claims.UserID {
			http.Error(w, "family not found", http.StatusNotFound)
			return
		}

		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		m, err := svc.AddMember(r.Context(), familyID, MemberInput{
			Name:         req.Name,
			Relationship: req.Relationship,
			BirthDate:    bd,
			BloodType:    req.BloodType,
			Notes:        req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

// listMembersHandler es una vista agregada: solo grants de toda la familia.
func listMembersHandler(svc *Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		familyID := chi.URLParam(r, "familyID")
		f, err := svc.GetByID(r.Context(), familyID)
		if err != nil {
			http.Error(w, "family not found", http.StatusNotFound)
			return
		}

		if _, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID},
			sharegrants.ResourceProfile, sharegrants.ActionView); !ok {
			return
		}

		items, err := svc.ListMembers(r.Context(), f.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]memberResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getMemberHandler(svc *Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	// Owner bypass, delegado requiere PROFILE:VIEW
	return func(w http.ResponseWriter, r *http.Request) {
		f, m, ok := loadMember(w, r, svc)
		if !ok {
			return
		}

		if _, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID, MemberID: &m.ID},
			sharegrants.ResourceProfile, sharegrants.ActionView); !ok {
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(m))
	}
}

// updateMemberHandler: owner bypass, delegado requiere PROFILE:EDIT.
func updateMemberHandler(svc *Service, grantsSvc *sharegrants.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, m, ok := loadMember(w, r, svc)
		if !ok {
			return
		}

		if _, ok := grantsSvc.Guard(w, r, f.OwnerUserID, sharegrants.Target{FamilyID: f.ID, MemberID: &m.ID},
			sharegrants.ResourceProfile, sharegrants.ActionEdit); !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateMemberRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.UpdateMember(r.Context(), f.ID, m.ID, UpdateProfileInput{
			Name:         req.Name,
			Relationship: req.Relationship,
			BloodType:    req.BloodType,
			Notes:        req.Notes,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "member not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toMemberResponse(updated))
	}
}

func loadMember(w http.ResponseWriter, r *http.Request, svc *Service) (Family, Member, bool) {
	f, err := svc.GetByID(r.Context(), chi.URLParam(r, "familyID"))
	if err != nil {
		http.Error(w, "family not found", http.StatusNotFound)
		return Family{}, Member{}, false
	}
	m, err := svc.GetMember(r.Context(), f.ID, chi.URLParam(r, "memberID"))
	if err != nil {
		http.Error(w, "member not found", http.StatusNotFound)
		return Family{}, Member{}, false
	}
	return f, m, true
}

func toFamilyResponse(f Family) familyResponse {
	return familyResponse{
		ID:          f.ID,
		OwnerUserID: f.OwnerUserID,
		Name:        f.Name,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func toMemberResponse(m Member) memberResponse {
	return memberResponse{
		ID:           m.ID,
		FamilyID:     m.FamilyID,
		Name:         m.Name,
		Relationship: m.Relationship,
		BirthDate:    m.BirthDate,
		BloodType:    m.BloodType,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos (families/records/sharegrants).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
