package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"family-health-records/internal/domain/sharegrants"

	"github.com/jmoiron/sqlx"
)

type ShareGrantsRepo struct {
	db *sqlx.DB
}

func NewShareGrantsRepo(db *sqlx.DB) *ShareGrantsRepo {
	return &ShareGrantsRepo{db: db}
}

// grantRow es una fila del LEFT JOIN grant x permiso (una por acción).
type grantRow struct {
	ID            string         `db:"id"`
	OwnerFamilyID string         `db:"owner_family_id"`
	ScopeMemberID sql.NullString `db:"scope_member_id"`
	Channel       string         `db:"channel"`
	InvitedEmails []byte         `db:"invited_emails"`
	Reason        string         `db:"reason"`
	ExpiresAt     time.Time      `db:"expires_at"`
	CreatedAt     time.Time      `db:"created_at"`
	ResourceType  sql.NullString `db:"resource_type"`
	Action        sql.NullString `db:"action"`
}

const selectGrants = `
	SELECT
		g.id, g.owner_family_id, g.scope_member_id, g.channel,
		g.invited_emails, g.reason, g.expires_at, g.created_at,
		p.resource_type, p.action
	FROM share_grants g
	LEFT JOIN share_grant_permissions p ON p.grant_id = g.id
`

const orderGrants = `
	ORDER BY g.created_at DESC, g.id DESC, p.resource_type, p.action
`

// Create inserta grant y permisos en una sola transacción: nadie ve un grant sin sus entries.
func (r *ShareGrantsRepo) Create(ctx context.Context, g sharegrants.ShareGrant) error {
	emails := g.InvitedEmails
	if emails == nil {
		emails = []string{}
	}
	rawEmails, err := json.Marshal(emails)
	if err != nil {
		return fmt.Errorf("marshal invited emails: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO share_grants (
			id, owner_family_id, scope_member_id, channel,
			invited_emails, reason, expires_at, created_at
		) VALUES ($1,$2,$3,$4,$5::jsonb,$6,$7,$8)
	`,
		g.ID,
		g.OwnerFamilyID,
		toNullString(g.ScopeMemberID),
		string(g.Channel),
		string(rawEmails),
		g.Reason,
		g.ExpiresAt,
		g.CreatedAt,
	); err != nil {
		return err
	}

	for _, p := range g.Permissions {
		for _, a := range p.Actions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO share_grant_permissions (grant_id, resource_type, action)
				VALUES ($1,$2,$3)
			`, g.ID, string(p.ResourceType), string(a)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *ShareGrantsRepo) GetByID(ctx context.Context, id string) (sharegrants.ShareGrant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return sharegrants.ShareGrant{}, sharegrants.ErrGrantNotFound
	}

	items, err := r.query(ctx, selectGrants+` WHERE g.id = $1 `+orderGrants, id)
	if err != nil {
		return sharegrants.ShareGrant{}, err
	}
	if len(items) == 0 {
		return sharegrants.ShareGrant{}, sharegrants.ErrGrantNotFound
	}
	return items[0], nil
}

func (r *ShareGrantsRepo) ListByFamily(ctx context.Context, familyID string) ([]sharegrants.ShareGrant, error) {
	familyID = strings.TrimSpace(familyID)
	if familyID == "" {
		return nil, nil
	}
	return r.query(ctx, selectGrants+` WHERE g.owner_family_id = $1 `+orderGrants, familyID)
}

func (r *ShareGrantsRepo) ListByInvitedEmail(ctx context.Context, email string) ([]sharegrants.ShareGrant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	return r.query(ctx, selectGrants+` WHERE g.invited_emails @> jsonb_build_array($1::text) `+orderGrants, email)
}

// Delete es un único DELETE; el CASCADE borra los permisos en la misma sentencia.
func (r *ShareGrantsRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_grants WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ShareGrantsRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_grants WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *ShareGrantsRepo) query(ctx context.Context, q string, args ...any) ([]sharegrants.ShareGrant, error) {
	var rows []grantRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return foldGrantRows(rows)
}

// foldGrantRows agrupa las filas del JOIN respetando el orden de la query.
func foldGrantRows(rows []grantRow) ([]sharegrants.ShareGrant, error) {
	out := make([]sharegrants.ShareGrant, 0)
	index := map[string]int{}

	for _, row := range rows {
		i, seen := index[row.ID]
		if !seen {
			g := sharegrants.ShareGrant{
				ID:            row.ID,
				OwnerFamilyID: row.OwnerFamilyID,
				Channel:       sharegrants.Channel(row.Channel),
				Reason:        row.Reason,
				ExpiresAt:     row.ExpiresAt,
				CreatedAt:     row.CreatedAt,
				InvitedEmails: []string{},
			}
			if row.ScopeMemberID.Valid {
				m := row.ScopeMemberID.String
				g.ScopeMemberID = &m
			}
			if len(row.InvitedEmails) > 0 {
				if err := json.Unmarshal(row.InvitedEmails, &g.InvitedEmails); err != nil {
					return nil, fmt.Errorf("decode invited emails of %s: %w", row.ID, err)
				}
			}
			out = append(out, g)
			i = len(out) - 1
			index[row.ID] = i
		}

		if !row.ResourceType.Valid || !row.Action.Valid {
			continue
		}
		addPermission(&out[i], sharegrants.ResourceType(row.ResourceType.String), sharegrants.ActionType(row.Action.String))
	}

	for i := range out {
		for j := range out[i].Permissions {
			sharegrants.SortActions(out[i].Permissions[j].Actions)
		}
	}
	return out, nil
}

func addPermission(g *sharegrants.ShareGrant, rt sharegrants.ResourceType, a sharegrants.ActionType) {
	for i := range g.Permissions {
		if g.Permissions[i].ResourceType == rt {
			g.Permissions[i].Actions = append(g.Permissions[i].Actions, a)
			return
		}
	}
	g.Permissions = append(g.Permissions, sharegrants.PermissionEntry{
		ResourceType: rt,
		Actions:      []sharegrants.ActionType{a},
	})
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
