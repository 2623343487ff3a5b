package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-health-records/internal/domain/records"

	"github.com/jmoiron/sqlx"
)

type RecordsRepo struct {
	db *sqlx.DB
}

func NewRecordsRepo(db *sqlx.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

type entryRow struct {
	ID         string    `db:"id"`
	FamilyID   string    `db:"family_id"`
	MemberID   string    `db:"member_id"`
	Kind       string    `db:"kind"`
	Title      string    `db:"title"`
	Notes      string    `db:"notes"`
	OccurredAt time.Time `db:"occurred_at"`
	RecordedAt time.Time `db:"recorded_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	ActorType  string    `db:"actor_type"`
	ActorID    string    `db:"actor_id"`
}

func (row entryRow) toDomain() records.Entry {
	return records.Entry{
		ID:         row.ID,
		FamilyID:   row.FamilyID,
		MemberID:   row.MemberID,
		Kind:       records.Kind(row.Kind),
		Title:      row.Title,
		Notes:      row.Notes,
		OccurredAt: row.OccurredAt,
		RecordedAt: row.RecordedAt,
		UpdatedAt:  row.UpdatedAt,
		Actor: records.Actor{
			Type: records.ActorType(row.ActorType),
			ID:   row.ActorID,
		},
	}
}

const selectEntries = `
	SELECT
		id, family_id, member_id, kind,
		title, notes,
		occurred_at, recorded_at, updated_at,
		actor_type, actor_id
	FROM medical_entries
`

func (r *RecordsRepo) Create(ctx context.Context, e records.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_entries (
			id, family_id, member_id, kind,
			title, notes,
			occurred_at, recorded_at, updated_at,
			actor_type, actor_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		e.ID,
		e.FamilyID,
		e.MemberID,
		string(e.Kind),
		e.Title,
		e.Notes,
		e.OccurredAt,
		e.RecordedAt,
		e.UpdatedAt,
		string(e.Actor.Type),
		e.Actor.ID,
	)
	return err
}

func (r *RecordsRepo) Update(ctx context.Context, e records.Entry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_entries
		SET
			title = $2,
			notes = $3,
			occurred_at = $4,
			updated_at = $5
		WHERE id = $1
	`,
		e.ID,
		e.Title,
		e.Notes,
		e.OccurredAt,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.Entry{}, records.ErrNotFound
	}

	var row entryRow
	if err := r.db.GetContext(ctx, &row, selectEntries+` WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return records.Entry{}, records.ErrNotFound
		}
		return records.Entry{}, err
	}
	return row.toDomain(), nil
}

func (r *RecordsRepo) List(ctx context.Context, filter records.ListFilter) ([]records.Entry, error) {
	familyID := strings.TrimSpace(filter.FamilyID)
	if familyID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(selectEntries)
	sb.WriteString(" WHERE family_id = $1 AND kind = $2")

	args := []any{familyID, string(filter.Kind)}
	argN := 3

	if m := strings.TrimSpace(filter.MemberID); m != "" {
		sb.WriteString(fmt.Sprintf(" AND member_id = $%d", argN))
		args = append(args, m)
		argN++
	}
	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND occurred_at <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}
	// q: búsqueda simple en title + notes
	if q := strings.TrimSpace(filter.Query); q != "" {
		sb.WriteString(fmt.Sprintf(" AND (title ILIKE $%d OR notes ILIKE $%d)", argN, argN))
		args = append(args, "%"+q+"%")
		argN++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	sb.WriteString(" ORDER BY occurred_at DESC")
	sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
	args = append(args, limit)

	var rows []entryRow
	if err := r.db.SelectContext(ctx, &rows, sb.String(), args...); err != nil {
		return nil, err
	}

	out := make([]records.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
