package families

import (
	"context"
	"errors"
)

// Lookups que consume sharegrants.FamilyDirectory.
// Viven aquí para evitar ciclos de imports (families <-> sharegrants).

func (s *Service) OwnerOf(ctx context.Context, familyID string) (string, error) {
	f, err := s.GetByID(ctx, familyID)
	if err != nil {
		return "", err
	}
	return f.OwnerUserID, nil
}

// MemberOf distingue "no pertenece" (false, nil) de un error del store.
func (s *Service) MemberOf(ctx context.Context, familyID, memberID string) (bool, error) {
	_, err := s.GetMember(ctx, familyID, memberID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) MemberName(ctx context.Context, familyID, memberID string) (string, error) {
	m, err := s.GetMember(ctx, familyID, memberID)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}
