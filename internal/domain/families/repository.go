package families

import (
	"context"
	"errors"
)

// ErrNotFound lo devuelven los adapters cuando la familia o el miembro no existen.
var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, f Family) error
	GetByID(ctx context.Context, id string) (Family, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Family, error)

	AddMember(ctx context.Context, m Member) error
	UpdateMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, familyID, memberID string) (Member, error)
	ListMembers(ctx context.Context, familyID string) ([]Member, error)
}
