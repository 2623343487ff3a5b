package families

import "time"

// Relationship del miembro respecto al titular de la familia.
type Relationship string

const (
	RelationshipSelf    Relationship = "self"
	RelationshipSpouse  Relationship = "spouse"
	RelationshipChild   Relationship = "child"
	RelationshipParent  Relationship = "parent"
	RelationshipSibling Relationship = "sibling"
	RelationshipOther   Relationship = "other"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelationshipSelf, RelationshipSpouse, RelationshipChild, RelationshipParent, RelationshipSibling, RelationshipOther:
		return true
	default:
		return false
	}
}

// Family agrupa los perfiles médicos de un hogar. El owner es quien comparte.
type Family struct {
	ID          string
	OwnerUserID string

	Name string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member es el perfil de una persona dentro de la familia.
type Member struct {
	ID       string
	FamilyID string

	Name         string
	Relationship Relationship

	BirthDate *time.Time
	BloodType string
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
