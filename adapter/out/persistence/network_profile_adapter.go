// Package persistence provides PostgreSQL adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"network_server/core/domain"
	"network_server/core/port/out"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProfileAdapter implements out.ProfileRepository using PostgreSQL.
type ProfileAdapter struct {
	db *sqlx.DB
}

func NewProfileAdapter(db *sqlx.DB) *ProfileAdapter {
	return &ProfileAdapter{db: db}
}

// profileRow represents the database row for users.
type profileRow struct {
	ID        uuid.UUID      `db:"id"`
	Name      string         `db:"name"`
	Email     sql.NullString `db:"email"`
	Role      string         `db:"role"`
	Headline  sql.NullString `db:"headline"`
	Location  sql.NullString `db:"location"`
	Company   sql.NullString `db:"company"`
	Skills    pq.StringArray `db:"skills"`
	Active    bool           `db:"active"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r *profileRow) toDomain() *domain.User {
	skills := []string(r.Skills)
	if skills == nil {
		skills = []string{}
	}
	return &domain.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email.String,
		Role:      domain.UserRole(r.Role),
		Headline:  r.Headline.String,
		Skills:    skills,
		Location:  r.Location.String,
		Company:   r.Company.String,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const profileColumns = `id, name, email, role, headline, location, company, skills, active, created_at, updated_at`

func (a *ProfileAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toDomain(), nil
}

func (a *ProfileAdapter) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	var rows []profileRow
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = ANY($1::uuid[])`
	if err := a.db.SelectContext(ctx, &rows, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

// skillMatch is true when candidate skill s and target skill q contain one
// another, case-insensitively. strpos avoids LIKE wildcards in skill names.
const skillMatch = `btrim(s) <> '' AND (strpos(lower(btrim(s)), q) > 0 OR strpos(q, lower(btrim(s))) > 0)`

// similarQuery matches on company, location or any related skill. Users
// matching more of the target's skills come first.
const similarQuery = `
	SELECT ` + profileColumns + `
	FROM users
	WHERE active = true
		AND id <> $1
		AND id <> ALL($2::uuid[])
		AND (
			($3 <> '' AND lower(company) = $3)
			OR ($4 <> '' AND lower(location) = $4)
			OR EXISTS (
				SELECT 1 FROM unnest(skills) s, unnest($5::text[]) q
				WHERE ` + skillMatch + `
			)
		)
	ORDER BY (
			SELECT count(*) FROM unnest($5::text[]) q
			WHERE EXISTS (SELECT 1 FROM unnest(skills) s WHERE ` + skillMatch + `)
		) DESC,
		created_at DESC
	LIMIT $6
`

// FindSimilar uses the same substring rule as recommendation scoring, so
// "Go" finds "Golang" and "React Native" finds "React".
func (a *ProfileAdapter) FindSimilar(ctx context.Context, user *domain.User, exclude []uuid.UUID, limit int) ([]*domain.User, error) {
	if limit <= 0 {
		return []*domain.User{}, nil
	}

	var rows []profileRow
	err := a.db.SelectContext(ctx, &rows, similarQuery,
		user.ID,
		pq.Array(uuidStrings(exclude)),
		strings.ToLower(strings.TrimSpace(user.Company)),
		strings.ToLower(strings.TrimSpace(user.Location)),
		pq.Array(lowerSkills(user.Skills)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar users: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, id.String())
	}
	return strs
}

// lowerSkills trims, lowercases and dedupes, dropping empty entries.
func lowerSkills(skills []string) []string {
	lowered := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		lowered = append(lowered, s)
	}
	return lowered
}

var _ out.ProfileRepository = (*ProfileAdapter)(nil)
