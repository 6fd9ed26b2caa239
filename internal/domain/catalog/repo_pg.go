package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/apperr"
)

type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &catalogRepoPG{pool: pool}
}

const serviceCols = `id, name, about, short_description, price, available,
	dates, slots, instructions, image_url, image_asset_id,
	total_appointments, completed, canceled, created_at, updated_at`

func scanService(row pgx.Row) (*CareService, error) {
	var cs CareService
	err := row.Scan(&cs.ID, &cs.Name, &cs.About, &cs.ShortDescription, &cs.Price, &cs.Available,
		&cs.Dates, &cs.Slots, &cs.Instructions, &cs.ImageURL, &cs.ImageAssetID,
		&cs.TotalAppointments, &cs.Completed, &cs.Canceled, &cs.CreatedAt, &cs.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("service not found")
		}
		return nil, apperr.Storage(err)
	}
	return &cs, nil
}

func (r *catalogRepoPG) Create(ctx context.Context, cs *CareService) error {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO care_services (id, name, about, short_description, price, available,
			dates, slots, instructions, image_url, image_asset_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		cs.ID, cs.Name, cs.About, cs.ShortDescription, cs.Price, cs.Available,
		cs.Dates, cs.Slots, cs.Instructions, cs.ImageURL, cs.ImageAssetID)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *catalogRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CareService, error) {
	return scanService(r.pool.QueryRow(ctx,
		`SELECT `+serviceCols+` FROM care_services WHERE id = $1`, id))
}

func (r *catalogRepoPG) Update(ctx context.Context, cs *CareService) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE care_services SET name=$2, about=$3, short_description=$4, price=$5,
			available=$6, dates=$7, slots=$8, instructions=$9,
			image_url=$10, image_asset_id=$11, updated_at=NOW()
		WHERE id = $1`,
		cs.ID, cs.Name, cs.About, cs.ShortDescription, cs.Price,
		cs.Available, cs.Dates, cs.Slots, cs.Instructions,
		cs.ImageURL, cs.ImageAssetID)
	if err != nil {
		return apperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("service not found")
	}
	return nil
}

func (r *catalogRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM care_services WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("service not found")
	}
	return nil
}

func (r *catalogRepoPG) List(ctx context.Context, limit, offset int) ([]*CareService, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM care_services`).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+serviceCols+` FROM care_services ORDER BY name ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var items []*CareService
	for rows.Next() {
		cs, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

func (r *catalogRepoPG) Increment(ctx context.Context, id uuid.UUID, counter Counter) error {
	var col string
	switch counter {
	case CounterTotal, CounterCompleted, CounterCanceled:
		col = string(counter)
	default:
		return apperr.Validation("unknown counter %q", counter)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE care_services SET `+col+` = `+col+` + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("service not found")
	}
	return nil
}
