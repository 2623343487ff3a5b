package sharegrants

import (
	"sort"
	"strings"
	"time"
)

// ResourceType identifica una clase de datos médicos que un grant puede cubrir.
type ResourceType string

const (
	ResourceProfile       ResourceType = "PROFILE"
	ResourceMedicalRecord ResourceType = "MEDICAL_RECORD"
	ResourceFileDocument  ResourceType = "FILE_DOCUMENT"
	ResourcePrescription  ResourceType = "PRESCRIPTION"
	ResourceVaccination   ResourceType = "VACCINATION"
)

// ResourceTypes devuelve el enum completo en orden canónico.
func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceProfile,
		ResourceMedicalRecord,
		ResourceFileDocument,
		ResourcePrescription,
		ResourceVaccination,
	}
}

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceProfile, ResourceMedicalRecord, ResourceFileDocument, ResourcePrescription, ResourceVaccination:
		return true
	default:
		return false
	}
}

// ParseResourceType acepta el valor en cualquier capitalización.
func ParseResourceType(s string) (ResourceType, bool) {
	r := ResourceType(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// ActionType es la operación que un delegado puede hacer sobre un ResourceType.
type ActionType string

const (
	ActionView   ActionType = "VIEW"
	ActionCreate ActionType = "CREATE"
	ActionEdit   ActionType = "EDIT"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit:
		return true
	default:
		return false
	}
}

func (a ActionType) rank() int {
	switch a {
	case ActionView:
		return 0
	case ActionCreate:
		return 1
	case ActionEdit:
		return 2
	default:
		return 3
	}
}

func ParseAction(s string) (ActionType, bool) {
	a := ActionType(strings.ToUpper(strings.TrimSpace(s)))
	return a, a.Valid()
}

// Channel define cómo el portador demuestra que tiene derecho al grant.
type Channel string

const (
	ChannelLink    Channel = "LINK"
	ChannelInvited Channel = "INVITED"
)

func (c Channel) Valid() bool {
	return c == ChannelLink || c == ChannelInvited
}

// Status es derivado; nunca se persiste.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
)

// PermissionEntry pertenece a exactamente un grant.
type PermissionEntry struct {
	ResourceType ResourceType
	Actions      []ActionType
}

func (p PermissionEntry) Has(action ActionType) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// ShareGrant es la unidad de autorización: scope (familia o miembro),
// canal, vencimiento y la matriz recurso -> acciones.
type ShareGrant struct {
	ID string

	OwnerFamilyID string
	ScopeMemberID *string // nil = toda la familia

	Channel       Channel
	InvitedEmails []string // solo con ChannelInvited

	Reason string

	ExpiresAt time.Time
	CreatedAt time.Time

	Permissions []PermissionEntry
}

// Status: ACTIVE mientras now < ExpiresAt.
func (g ShareGrant) Status(now time.Time) Status {
	if now.Before(g.ExpiresAt) {
		return StatusActive
	}
	return StatusExpired
}

func (g ShareGrant) FamilyWide() bool {
	return g.ScopeMemberID == nil
}

// CoversMember indica si el scope del grant alcanza al miembro pedido.
// memberID nil representa las vistas agregadas de la familia.
func (g ShareGrant) CoversMember(memberID *string) bool {
	if g.ScopeMemberID == nil {
		return true
	}
	if memberID == nil {
		return false
	}
	return *g.ScopeMemberID == *memberID
}

// Invites compara emails sin distinguir mayúsculas.
func (g ShareGrant) Invites(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, e := range g.InvitedEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

func (g ShareGrant) Allows(resource ResourceType, action ActionType) bool {
	for _, p := range g.Permissions {
		if p.ResourceType == resource && p.Has(action) {
			return true
		}
	}
	return false
}

// PermissionMap arma el mapa recurso -> acciones que consume la UI.
func (g ShareGrant) PermissionMap() map[ResourceType][]ActionType {
	out := make(map[ResourceType][]ActionType, len(g.Permissions))
	for _, p := range g.Permissions {
		out[p.ResourceType] = append([]ActionType(nil), p.Actions...)
	}
	return out
}

// Clone evita que quien lee del store comparta slices con el store.
func (g ShareGrant) Clone() ShareGrant {
	c := g
	if g.ScopeMemberID != nil {
		m := *g.ScopeMemberID
		c.ScopeMemberID = &m
	}
	c.InvitedEmails = append([]string(nil), g.InvitedEmails...)
	c.Permissions = make([]PermissionEntry, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		c.Permissions = append(c.Permissions, PermissionEntry{
			ResourceType: p.ResourceType,
			Actions:      append([]ActionType(nil), p.Actions...),
		})
	}
	return c
}

// SortActions deja las acciones en orden VIEW, CREATE, EDIT.
func SortActions(in []ActionType) {
	sort.SliceStable(in, func(i, j int) bool { return in[i].rank() < in[j].rank() })
}

// SortNewestFirst ordena por CreatedAt desc; empate por id para que sea estable.
func SortNewestFirst(items []ShareGrant) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func resourceRank(r ResourceType) int {
	for i, v := range ResourceTypes() {
		if v == r {
			return i
		}
	}
	return len(ResourceTypes())
}

func sortPermissions(in []PermissionEntry) {
	sort.SliceStable(in, func(i, j int) bool {
		return resourceRank(in[i].ResourceType) < resourceRank(in[j].ResourceType)
	})
}
