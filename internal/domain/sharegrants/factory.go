package sharegrants

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxReasonLen = 500

var validate = validator.New()

// PermissionInput es un toggle de la UI: recurso + acciones deseadas.
type PermissionInput struct {
	ResourceType string
	Actions      []string
}

type CreateGrantInput struct {
	RequestedBy string

	OwnerFamilyID string
	ScopeMemberID *string

	Channel       string
	InvitedEmails []string

	Reason    string
	ExpiresAt time.Time

	Permissions []PermissionInput
}

// CreateGrant valida el request completo y recién después persiste:
// o se guarda el grant con todas sus entries o no se guarda nada.
func (s *Service) CreateGrant(ctx context.Context, in CreateGrantInput) (ShareGrant, error) {
	now := s.now()

	familyID := strings.TrimSpace(in.OwnerFamilyID)
	if familyID == "" {
		return ShareGrant{}, invalid("owner_family_id", "required")
	}
	if !s.ownsFamily(ctx, familyID, in.RequestedBy) {
		return ShareGrant{}, &NotFoundError{Resource: "family", ID: familyID}
	}

	var memberID *string
	if in.ScopeMemberID != nil {
		m := strings.TrimSpace(*in.ScopeMemberID)
		if m == "" {
			return ShareGrant{}, invalid("scope_member_id", "must not be blank")
		}
		ok, err := s.families.MemberOf(ctx, familyID, m)
		if err != nil || !ok {
			return ShareGrant{}, invalid("scope_member_id", "member does not belong to family")
		}
		memberID = &m
	}

	channel := Channel(strings.ToUpper(strings.TrimSpace(in.Channel)))
	if channel == "" {
		return ShareGrant{}, invalid("channel", "required")
	}
	if !channel.Valid() {
		return ShareGrant{}, invalid("channel", "must be LINK or INVITED")
	}

	emails, err := normalizeEmails(channel, in.InvitedEmails)
	if err != nil {
		return ShareGrant{}, err
	}

	perms, err := mergePermissions(in.Permissions)
	if err != nil {
		return ShareGrant{}, err
	}

	if in.ExpiresAt.IsZero() {
		return ShareGrant{}, invalid("expires_at", "required")
	}
	if !in.ExpiresAt.After(now) {
		return ShareGrant{}, invalid("expires_at", "must be in the future")
	}

	reason := strings.TrimSpace(in.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLen {
		return ShareGrant{}, invalid("reason", fmt.Sprintf("must be at most %d characters", maxReasonLen))
	}

	g := ShareGrant{
		ID:            uuid.NewString(),
		OwnerFamilyID: familyID,
		ScopeMemberID: memberID,
		Channel:       channel,
		InvitedEmails: emails,
		Reason:        reason,
		ExpiresAt:     in.ExpiresAt.UTC(),
		CreatedAt:     now.UTC(),
		Permissions:   perms,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return ShareGrant{}, fmt.Errorf("store share grant: %w", err)
	}

	s.log.Info("share grant created", map[string]any{
		"grant_id":  g.ID,
		"family_id": g.OwnerFamilyID,
		"channel":   string(g.Channel),
		"expires":   g.ExpiresAt.Format(time.RFC3339),
	})
	return g, nil
}

func normalizeEmails(channel Channel, in []string) ([]string, error) {
	if channel == ChannelLink {
		for _, e := range in {
			if strings.TrimSpace(e) != "" {
				return nil, invalid("invited_emails", "must be empty for LINK channel")
			}
		}
		return []string{}, nil
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, raw := range in {
		e := strings.ToLower(strings.TrimSpace(raw))
		if e == "" {
			continue
		}
		if err := validate.Var(e, "email"); err != nil {
			return nil, invalid("invited_emails", fmt.Sprintf("%q is not a valid email", raw))
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, invalid("invited_emails", "at least one email required for INVITED channel")
	}
	return out, nil
}

// mergePermissions colapsa la secuencia de toggles en un set final:
// un segundo toggle del mismo recurso reemplaza las acciones anteriores.
func mergePermissions(in []PermissionInput) ([]PermissionEntry, error) {
	if len(in) == 0 {
		return nil, invalid("permissions", "at least one entry required")
	}

	byResource := map[ResourceType][]ActionType{}
	for _, p := range in {
		rt, ok := ParseResourceType(p.ResourceType)
		if !ok {
			return nil, invalid("permissions", fmt.Sprintf("unknown resource type %q", p.ResourceType))
		}

		seen := map[ActionType]struct{}{}
		actions := make([]ActionType, 0, len(p.Actions))
		for _, raw := range p.Actions {
			a, ok := ParseAction(raw)
			if !ok {
				return nil, invalid("permissions", fmt.Sprintf("unknown action %q for %s", raw, rt))
			}
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			actions = append(actions, a)
		}
		byResource[rt] = actions
	}

	out := make([]PermissionEntry, 0, len(byResource))
	for rt, actions := range byResource {
		if len(actions) == 0 {
			return nil, invalid("permissions", fmt.Sprintf("%s has no actions", rt))
		}
		SortActions(actions)
		out = append(out, PermissionEntry{ResourceType: rt, Actions: actions})
	}
	sortPermissions(out)
	return out, nil
}
