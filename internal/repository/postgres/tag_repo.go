package postgres

import (
	"context"

	"exec-marketplace-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type tagRepo struct {
	db *pgxpool.Pool
}

func NewTagRepository(db *pgxpool.Pool) domain.TagRepository {
	return &tagRepo{db: db}
}

// Upsert creates the tag if absent; the (name, category) unique constraint
// makes repeated creation idempotent.
func (r *tagRepo) Upsert(ctx context.Context, tag *domain.Tag) error {
	query := `
		INSERT INTO tags (name, category)
		VALUES ($1, $2)
		ON CONFLICT (name, category) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	return r.db.QueryRow(ctx, query, tag.Name, tag.Category).Scan(&tag.ID)
}

func (r *tagRepo) List(ctx context.Context, category domain.TagCategory) ([]domain.Tag, error) {
	query := `SELECT id, name, category FROM tags`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Category); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
