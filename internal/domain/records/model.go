package records

import (
	"strings"
	"time"

	"family-health-records/internal/domain/sharegrants"
)

// Kind reutiliza el enum de recursos compartibles; PROFILE vive en families.
type Kind = sharegrants.ResourceType

var kindSlugs = map[string]Kind{
	"medical-records": sharegrants.ResourceMedicalRecord,
	"documents":       sharegrants.ResourceFileDocument,
	"prescriptions":   sharegrants.ResourcePrescription,
	"vaccinations":    sharegrants.ResourceVaccination,
}

// KindFromSlug traduce el segmento de URL ("vaccinations") al recurso.
func KindFromSlug(slug string) (Kind, bool) {
	k, ok := kindSlugs[strings.ToLower(strings.TrimSpace(slug))]
	return k, ok
}

func ValidKind(k Kind) bool {
	for _, v := range kindSlugs {
		if v == k {
			return true
		}
	}
	return false
}

type ActorType string

const (
	ActorTypeOwner   ActorType = "OWNER_USER"
	ActorTypeInvitee ActorType = "INVITED_USER"
	ActorTypeLink    ActorType = "SHARE_LINK"
)

type Actor struct {
	Type ActorType
	ID   string
}

// Entry es un registro médico de un miembro: visita, documento, receta o vacuna.
type Entry struct {
	ID       string
	FamilyID string
	MemberID string

	Kind Kind

	Title string
	Notes string

	OccurredAt time.Time
	RecordedAt time.Time
	UpdatedAt  time.Time

	Actor Actor
}
