package sharegrants

import (
	"context"
	"strings"

	"family-health-records/internal/platform/logger"
)

type Decision string

const (
	Allow Decision = "ALLOW"
	Deny  Decision = "DENY"
)

func (d Decision) Allowed() bool { return d == Allow }

// Credential es lo que presenta quien intenta acceder: el id del link
// (conocerlo alcanza) y/o el email de la identidad ya autenticada.
type Credential struct {
	LinkID string
	Email  string
}

func (c Credential) Empty() bool {
	return strings.TrimSpace(c.LinkID) == "" && strings.TrimSpace(c.Email) == ""
}

// Target es el scope pedido. MemberID nil = vistas agregadas de la familia.
type Target struct {
	FamilyID string
	MemberID *string
}

// Evaluate decide allow/deny releyendo el store en cada llamada.
// Solo devuelve error ante enums desconocidos (*InvalidRequestError);
// cualquier otra ambigüedad, incluido el store caído, es Deny.
func (s *Service) Evaluate(ctx context.Context, cred Credential, target Target, resource ResourceType, action ActionType) (Decision, error) {
	_, d, err := s.Match(ctx, cred, target, resource, action)
	return d, err
}

// Match es Evaluate devolviendo además el primer grant que autoriza.
// Con Deny el grant es el valor cero.
func (s *Service) Match(ctx context.Context, cred Credential, target Target, resource ResourceType, action ActionType) (ShareGrant, Decision, error) {
	if !resource.Valid() {
		err := &InvalidRequestError{Field: "resource_type", Value: string(resource)}
		s.log.Error("evaluate called with invalid input", logger.Err(err))
		return ShareGrant{}, Deny, err
	}
	if !action.Valid() {
		err := &InvalidRequestError{Field: "action", Value: string(action)}
		s.log.Error("evaluate called with invalid input", logger.Err(err))
		return ShareGrant{}, Deny, err
	}

	familyID := strings.TrimSpace(target.FamilyID)
	if familyID == "" || cred.Empty() {
		return ShareGrant{}, Deny, nil
	}
	if target.MemberID != nil && strings.TrimSpace(*target.MemberID) == "" {
		return ShareGrant{}, Deny, nil
	}

	candidates, err := s.repo.ListByFamily(ctx, familyID)
	if err != nil {
		s.log.Error("grant store unavailable, denying", map[string]any{
			"family_id": familyID,
			"error":     err.Error(),
		})
		return ShareGrant{}, Deny, nil
	}

	now := s.now()
	linkID := strings.TrimSpace(cred.LinkID)
	email := strings.TrimSpace(cred.Email)

	decision := Deny
	var matched ShareGrant
	for _, g := range candidates {
		if g.OwnerFamilyID != familyID {
			continue
		}
		if !g.CoversMember(target.MemberID) {
			continue
		}
		if g.Status(now) != StatusActive {
			continue
		}
		if !matchesChannel(g, linkID, email) {
			continue
		}
		if g.Allows(resource, action) {
			decision = Allow
			matched = g
			break
		}
	}

	fields := map[string]any{
		"family_id": familyID,
		"resource":  string(resource),
		"action":    string(action),
		"decision":  string(decision),
	}
	if target.MemberID != nil {
		fields["member_id"] = *target.MemberID
	}
	if decision == Allow {
		fields["grant_id"] = matched.ID
	}
	s.log.Debug("share access evaluated", fields)

	return matched, decision, nil
}

// Authorize es Evaluate para consumidores que solo necesitan cortar el request.
func (s *Service) Authorize(ctx context.Context, cred Credential, target Target, resource ResourceType, action ActionType) error {
	d, err := s.Evaluate(ctx, cred, target, resource, action)
	if err != nil {
		return err
	}
	if !d.Allowed() {
		return ErrAccessDenied
	}
	return nil
}

func matchesChannel(g ShareGrant, linkID, email string) bool {
	switch g.Channel {
	case ChannelLink:
		return linkID != "" && linkID == g.ID
	case ChannelInvited:
		return g.Invites(email)
	default:
		return false
	}
}
