package sharegrants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ListGrants devuelve grants activos y vencidos de la familia, más nuevos primero.
// Con memberID solo los grants cuyo scope es ese miembro.
func (s *Service) ListGrants(ctx context.Context, requestedBy, familyID string, memberID *string) ([]ShareGrant, error) {
	familyID = strings.TrimSpace(familyID)
	if !s.ownsFamily(ctx, familyID, requestedBy) {
		return nil, &NotFoundError{Resource: "family", ID: familyID}
	}

	items, err := s.repo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list share grants: %w", err)
	}

	out := make([]ShareGrant, 0, len(items))
	for _, g := range items {
		if memberID != nil {
			if g.ScopeMemberID == nil || *g.ScopeMemberID != strings.TrimSpace(*memberID) {
				continue
			}
		}
		out = append(out, g)
	}
	SortNewestFirst(out)
	return out, nil
}

// Revoke borra el grant. Es idempotente: un id inexistente no es error.
func (s *Service) Revoke(ctx context.Context, grantID, requestedBy string) error {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return invalid("grant_id", "required")
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return nil
		}
		return fmt.Errorf("load share grant: %w", err)
	}

	if !s.ownsFamily(ctx, g.OwnerFamilyID, requestedBy) {
		return &NotFoundError{Resource: "share grant", ID: grantID}
	}

	deleted, err := s.repo.Delete(ctx, grantID)
	if err != nil {
		return fmt.Errorf("delete share grant: %w", err)
	}
	if deleted {
		s.log.Info("share grant revoked", map[string]any{
			"grant_id":  grantID,
			"family_id": g.OwnerFamilyID,
		})
	}
	return nil
}

// ListSharedWith devuelve los grants INVITED activos que nombran al email.
func (s *Service) ListSharedWith(ctx context.Context, email string) ([]ShareGrant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.repo.ListByInvitedEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list shared grants: %w", err)
	}

	now := s.now()
	out := make([]ShareGrant, 0, len(items))
	for _, g := range items {
		if g.Channel != ChannelInvited || !g.Invites(email) {
			continue
		}
		if g.Status(now) != StatusActive {
			continue
		}
		out = append(out, g)
	}
	SortNewestFirst(out)
	return out, nil
}

// ResolveLink devuelve el grant LINK activo detrás de un link, para que quien
// lo abre sepa qué puede ver. Link desconocido, vencido o de otro canal: not found.
func (s *Service) ResolveLink(ctx context.Context, linkID string) (ShareGrant, error) {
	linkID = strings.TrimSpace(linkID)
	if linkID == "" {
		return ShareGrant{}, &NotFoundError{Resource: "share link", ID: linkID}
	}

	g, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return ShareGrant{}, &NotFoundError{Resource: "share link", ID: linkID}
		}
		return ShareGrant{}, fmt.Errorf("load share grant: %w", err)
	}
	if g.Channel != ChannelLink || g.Status(s.now()) != StatusActive {
		return ShareGrant{}, &NotFoundError{Resource: "share link", ID: linkID}
	}
	return g, nil
}

// PurgeExpired borra grants vencidos hace más de retention.
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int, error) {
	if retention < 0 {
		retention = 0
	}
	cutoff := s.now().Add(-retention)

	n, err := s.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired share grants: %w", err)
	}
	if n > 0 {
		s.log.Info("expired share grants purged", map[string]any{
			"count":  n,
			"cutoff": cutoff.Format(time.RFC3339),
		})
	}
	return n, nil
}
