package sharegrants

import (
	"context"
	"errors"
	"time"
)

// ErrGrantNotFound lo devuelven los adapters cuando el id no existe.
var ErrGrantNotFound = errors.New("share grant not found")

// Repository es el Grant Store: solo persistencia, sin reglas de negocio.
// Create guarda el grant con todas sus PermissionEntry de forma atómica y
// Delete debe ser atómico respecto a los lectores.
type Repository interface {
	Create(ctx context.Context, g ShareGrant) error
	GetByID(ctx context.Context, id string) (ShareGrant, error)
	ListByFamily(ctx context.Context, familyID string) ([]ShareGrant, error)
	ListByInvitedEmail(ctx context.Context, email string) ([]ShareGrant, error)

	// Delete informa si efectivamente borró una fila.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// FamilyDirectory evita importar el paquete families (rompe ciclos).
type FamilyDirectory interface {
	OwnerOf(ctx context.Context, familyID string) (string, error)
	MemberOf(ctx context.Context, familyID, memberID string) (bool, error)
	MemberName(ctx context.Context, familyID, memberID string) (string, error)
}
