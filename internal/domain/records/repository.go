package records

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Repository interface {
	Create(ctx context.Context, e Entry) error
	Update(ctx context.Context, e Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}

// ListFilter: MemberID vacío = toda la familia.
type ListFilter struct {
	FamilyID string
	MemberID string
	Kind     Kind
	From     *time.Time
	To       *time.Time
	Query    string
	Limit    int
}
