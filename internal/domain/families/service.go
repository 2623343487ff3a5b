package families

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerUserID, name string) (Family, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	name = strings.TrimSpace(name)
	if ownerUserID == "" || name == "" {
		return Family{}, ErrInvalidInput
	}

	now := s.now()
	f := Family{
		ID:          uuid.NewString(),
		OwnerUserID: ownerUserID,
		Name:        name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return Family{}, err
	}
	return f, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Family, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Family{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Family, error) {
	return s.repo.ListByOwner(ctx, strings.TrimSpace(ownerUserID))
}

type MemberInput struct {
	Name         string
	Relationship string
	BirthDate    *time.Time
	BloodType    string
	Notes        string
}

func (s *Service) AddMember(ctx context.Context, familyID string, in MemberInput) (Member, error) {
	familyID = strings.TrimSpace(familyID)
	if familyID == "" || strings.TrimSpace(in.Name) == "" {
		return Member{}, ErrInvalidInput
	}

	rel := Relationship(strings.ToLower(strings.TrimSpace(in.Relationship)))
	if rel == "" {
		rel = RelationshipOther
	}
	if !rel.Valid() {
		return Member{}, ErrInvalidInput
	}

	if _, err := s.repo.GetByID(ctx, familyID); err != nil {
		return Member{}, err
	}

	now := s.now()
	m := Member{
		ID:           uuid.NewString(),
		FamilyID:     familyID,
		Name:         strings.TrimSpace(in.Name),
		Relationship: rel,
		BirthDate:    in.BirthDate,
		BloodType:    strings.ToUpper(strings.TrimSpace(in.BloodType)),
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func (s *Service) GetMember(ctx context.Context, familyID, memberID string) (Member, error) {
	return s.repo.GetMember(ctx, strings.TrimSpace(familyID), strings.TrimSpace(memberID))
}

func (s *Service) ListMembers(ctx context.Context, familyID string) ([]Member, error) {
	return s.repo.ListMembers(ctx, strings.TrimSpace(familyID))
}

// UpdateProfileInput usa punteros para PATCH real: nil = no tocar.
type UpdateProfileInput struct {
	Name         *string
	Relationship *string
	BloodType    *string
	Notes        *string
}

func (s *Service) UpdateMember(ctx context.Context, familyID, memberID string, in UpdateProfileInput) (Member, error) {
	m, err := s.GetMember(ctx, familyID, memberID)
	if err != nil {
		return Member{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Member{}, ErrInvalidInput
		}
		m.Name = name
	}
	if in.Relationship != nil {
		rel := Relationship(strings.ToLower(strings.TrimSpace(*in.Relationship)))
		if !rel.Valid() {
			return Member{}, ErrInvalidInput
		}
		m.Relationship = rel
	}
	if in.BloodType != nil {
		m.BloodType = strings.ToUpper(strings.TrimSpace(*in.BloodType))
	}
	if in.Notes != nil {
		m.Notes = strings.TrimSpace(*in.Notes)
	}
	m.UpdatedAt = s.now()

	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return Member{}, err
	}
	return m, nil
}
