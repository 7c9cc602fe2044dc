package db

import (
	"context"

	"github.com/imgaltgen/imgaltgen/internal/models"
)

func (db *DB) CreateGeneration(ctx context.Context, gen *models.Generation) error {
	query := `
        INSERT INTO alt_text_generations (user_id, image_url, alt_text)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `

	return db.Pool.QueryRow(ctx, query,
		gen.UserID,
		gen.ImageURL,
		gen.AltText,
	).Scan(&gen.ID, &gen.CreatedAt)
}

func (db *DB) ListGenerationsByUser(ctx context.Context, userID string, limit int) ([]models.Generation, error) {
	query := `
        SELECT id, user_id, image_url, alt_text, created_at
        FROM alt_text_generations
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `

	rows, err := db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	generations := []models.Generation{}
	for rows.Next() {
		var gen models.Generation
		if err := rows.Scan(
			&gen.ID,
			&gen.UserID,
			&gen.ImageURL,
			&gen.AltText,
			&gen.CreatedAt,
		); err != nil {
			return nil, err
		}
		generations = append(generations, gen)
	}

	return generations, rows.Err()
}
