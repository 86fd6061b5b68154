package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/adboard/adboard/internal/model"
)

const adColumns = `id, title, description, price, user_id, created_at`

// ListAds returns every ad ordered by id. There is no pagination.
func (r *Repository) ListAds(ctx context.Context) ([]*model.Ad, error) {
	query := `SELECT ` + adColumns + ` FROM ads ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	ads := make([]*model.Ad, 0)
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		ads = append(ads, ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ads: %w", err)
	}

	return ads, nil
}

// GetAd retrieves an ad by its ID.
func (r *Repository) GetAd(ctx context.Context, id int64) (*model.Ad, error) {
	query := `SELECT ` + adColumns + ` FROM ads WHERE id = $1`

	ad, err := scanAd(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdNotFound
		}
		return nil, fmt.Errorf("failed to get ad by ID: %w", err)
	}

	return ad, nil
}

// CreateAd inserts an ad and sets ad.ID to the identity assigned by the table.
func (r *Repository) CreateAd(ctx context.Context, ad *model.Ad) error {
	query := `
		INSERT INTO ads (title, description, price, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		ad.Title,
		ad.Description,
		ad.Price,
		ad.UserID,
		ad.CreatedAt,
	).Scan(&ad.ID)
	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}

	return nil
}

// UpdateAd overwrites the mutable fields of an ad. created_at is left alone.
func (r *Repository) UpdateAd(ctx context.Context, ad *model.Ad) error {
	query := `
		UPDATE ads
		SET title = $2, description = $3, price = $4, user_id = $5
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		ad.ID,
		ad.Title,
		ad.Description,
		ad.Price,
		ad.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ad: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAdNotFound
	}

	return nil
}

// DeleteAd removes an ad.
func (r *Repository) DeleteAd(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAdNotFound
	}

	return nil
}

// DeleteAds removes the given ads in one statement and returns how many rows
// went away. Unknown ids are ignored.
func (r *Repository) DeleteAds(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM ads WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete ads: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanAd(row pgx.Row) (*model.Ad, error) {
	var ad model.Ad
	err := row.Scan(
		&ad.ID,
		&ad.Title,
		&ad.Description,
		&ad.Price,
		&ad.UserID,
		&ad.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ad, nil
}
