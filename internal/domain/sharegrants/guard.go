package sharegrants

import (
	"net/http"
	"strings"

	"family-health-records/internal/middleware"
)

type AccessorKind string

const (
	AccessorOwner   AccessorKind = "owner"
	AccessorInvitee AccessorKind = "invitee"
	AccessorLink    AccessorKind = "link"
)

// Accessor es quién termina operando: el owner, un invitado (por email)
// o el portador de un link (por id del grant).
type Accessor struct {
	Kind AccessorKind
	ID   string
}

// Guard es el punto de entrada de los handlers que sirven datos de una familia:
// owner bypass y, si no, el evaluator. Escribe 401/403/500 y devuelve false
// cuando el request no debe seguir.
func (s *Service) Guard(w http.ResponseWriter, r *http.Request, ownerUserID string, target Target, resource ResourceType, action ActionType) (Accessor, bool) {
	claims, hasClaims := middleware.GetClaims(r.Context())
	if hasClaims && strings.TrimSpace(claims.UserID) != "" && claims.UserID == ownerUserID {
		return Accessor{Kind: AccessorOwner, ID: claims.UserID}, true
	}

	cred := RequestCredential(r)
	if cred.Empty() {
		if !hasClaims {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		} else {
			http.Error(w, "forbidden", http.StatusForbidden)
		}
		return Accessor{}, false
	}

	g, d, err := s.Match(r.Context(), cred, target, resource, action)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return Accessor{}, false
	}
	if !d.Allowed() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Accessor{}, false
	}

	if g.Channel == ChannelLink {
		return Accessor{Kind: AccessorLink, ID: g.ID}, true
	}
	return Accessor{Kind: AccessorInvitee, ID: strings.ToLower(cred.Email)}, true
}
