package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"family-health-records/internal/domain/families"

	"github.com/jmoiron/sqlx"
)

type FamiliesRepo struct {
	db *sqlx.DB
}

func NewFamiliesRepo(db *sqlx.DB) *FamiliesRepo {
	return &FamiliesRepo{db: db}
}

type familyRow struct {
	ID          string    `db:"id"`
	OwnerUserID string    `db:"owner_user_id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row familyRow) toDomain() families.Family {
	return families.Family{
		ID:          row.ID,
		OwnerUserID: row.OwnerUserID,
		Name:        row.Name,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type memberRow struct {
	ID           string       `db:"id"`
	FamilyID     string       `db:"family_id"`
	Name         string       `db:"name"`
	Relationship string       `db:"relationship"`
	BirthDate    sql.NullTime `db:"birth_date"`
	BloodType    string       `db:"blood_type"`
	Notes        string       `db:"notes"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (row memberRow) toDomain() families.Member {
	m := families.Member{
		ID:           row.ID,
		FamilyID:     row.FamilyID,
		Name:         row.Name,
		Relationship: families.Relationship(row.Relationship),
		BloodType:    row.BloodType,
		Notes:        row.Notes,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.BirthDate.Valid {
		// birth_date es date: pgx lo entrega como medianoche UTC
		t := row.BirthDate.Time
		m.BirthDate = &t
	}
	return m
}

func (r *FamiliesRepo) Create(ctx context.Context, f families.Family) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO families (id, owner_user_id, name, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, f.ID, f.OwnerUserID, f.Name, f.CreatedAt, f.UpdatedAt)
	return err
}

func (r *FamiliesRepo) GetByID(ctx context.Context, id string) (families.Family, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return families.Family{}, families.ErrNotFound
	}

	var row familyRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT id, owner_user_id, name, created_at, updated_at
		FROM families
		WHERE id = $1
	`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return families.Family{}, families.ErrNotFound
		}
		return families.Family{}, err
	}
	return row.toDomain(), nil
}

func (r *FamiliesRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]families.Family, error) {
	var rows []familyRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, owner_user_id, name, created_at, updated_at
		FROM families
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`, ownerUserID); err != nil {
		return nil, err
	}

	out := make([]families.Family, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FamiliesRepo) AddMember(ctx context.Context, m families.Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO family_members (
			id, family_id, name, relationship,
			birth_date, blood_type, notes,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		m.ID,
		m.FamilyID,
		m.Name,
		string(m.Relationship),
		toNullTime(m.BirthDate),
		m.BloodType,
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *FamiliesRepo) UpdateMember(ctx context.Context, m families.Member) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE family_members
		SET
			name = $3,
			relationship = $4,
			birth_date = $5,
			blood_type = $6,
			notes = $7,
			updated_at = $8
		WHERE id = $1 AND family_id = $2
	`,
		m.ID,
		m.FamilyID,
		m.Name,
		string(m.Relationship),
		toNullTime(m.BirthDate),
		m.BloodType,
		m.Notes,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return families.ErrNotFound
	}
	return nil
}

func (r *FamiliesRepo) GetMember(ctx context.Context, familyID, memberID string) (families.Member, error) {
	familyID = strings.TrimSpace(familyID)
	memberID = strings.TrimSpace(memberID)
	if familyID == "" || memberID == "" {
		return families.Member{}, families.ErrNotFound
	}

	var row memberRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT id, family_id, name, relationship, birth_date, blood_type, notes, created_at, updated_at
		FROM family_members
		WHERE id = $1 AND family_id = $2
	`, memberID, familyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return families.Member{}, families.ErrNotFound
		}
		return families.Member{}, err
	}
	return row.toDomain(), nil
}

func (r *FamiliesRepo) ListMembers(ctx context.Context, familyID string) ([]families.Member, error) {
	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, family_id, name, relationship, birth_date, blood_type, notes, created_at, updated_at
		FROM family_members
		WHERE family_id = $1
		ORDER BY created_at ASC
	`, familyID); err != nil {
		return nil, err
	}

	out := make([]families.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
