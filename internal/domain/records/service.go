package records

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

type CreateInput struct {
	Kind       Kind
	OccurredAt time.Time
	Title      string
	Notes      string
}

func (s *Service) Create(ctx context.Context, familyID, memberID string, actor Actor, in CreateInput) (Entry, error) {
	familyID = strings.TrimSpace(familyID)
	memberID = strings.TrimSpace(memberID)
	if familyID == "" || memberID == "" {
		return Entry{}, ErrInvalidInput
	}
	if !ValidKind(in.Kind) {
		return Entry{}, ErrInvalidInput
	}
	if in.OccurredAt.IsZero() || strings.TrimSpace(in.Title) == "" {
		return Entry{}, ErrInvalidInput
	}
	if actor.Type == "" || strings.TrimSpace(actor.ID) == "" {
		return Entry{}, ErrInvalidInput
	}

	now := s.now()
	e := Entry{
		ID:         uuid.NewString(),
		FamilyID:   familyID,
		MemberID:   memberID,
		Kind:       in.Kind,
		Title:      strings.TrimSpace(in.Title),
		Notes:      strings.TrimSpace(in.Notes),
		OccurredAt: in.OccurredAt.UTC(),
		RecordedAt: now,
		UpdatedAt:  now,
		Actor:      actor,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, error) {
	if strings.TrimSpace(filter.FamilyID) == "" || !ValidKind(filter.Kind) {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, filter)
}

// UpdateInput usa punteros: nil = no tocar.
type UpdateInput struct {
	Title      *string
	Notes      *string
	OccurredAt *time.Time
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Entry, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return Entry{}, ErrInvalidInput
		}
		e.Title = t
	}
	if in.Notes != nil {
		e.Notes = strings.TrimSpace(*in.Notes)
	}
	if in.OccurredAt != nil {
		if in.OccurredAt.IsZero() {
			return Entry{}, ErrInvalidInput
		}
		e.OccurredAt = in.OccurredAt.UTC()
	}
	e.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
