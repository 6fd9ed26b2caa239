package doctor

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/apperr"
)

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &doctorRepoPG{pool: pool}
}

const doctorCols = `id, name, email, password_hash, specialization,
	experience, qualifications, location, about,
	fee, fees, availability, patients, rating,
	schedule, image_url, image_asset_id, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.Specialization,
		&d.Experience, &d.Qualifications, &d.Location, &d.About,
		&d.Fee, &d.LegacyFees, &d.Availability, &d.Patients, &d.Rating,
		&d.Schedule, &d.ImageURL, &d.ImageAssetID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("doctor not found")
		}
		return nil, apperr.Storage(err)
	}
	return &d, nil
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, email, password_hash, specialization,
			experience, qualifications, location, about,
			fee, fees, availability, patients, rating,
			schedule, image_url, image_asset_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		d.ID, d.Name, d.Email, d.PasswordHash, d.Specialization,
		d.Experience, d.Qualifications, d.Location, d.About,
		d.Fee, d.LegacyFees, d.Availability, d.Patients, d.Rating,
		d.Schedule, d.ImageURL, d.ImageAssetID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("doctor email already registered")
		}
		return apperr.Storage(err)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *doctorRepoPG) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE email = $1`, email))
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE doctors SET name=$2, email=$3, password_hash=$4, specialization=$5,
			experience=$6, qualifications=$7, location=$8, about=$9,
			fee=$10, availability=$11, patients=$12, rating=$13,
			schedule=$14, image_url=$15, image_asset_id=$16, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Email, d.PasswordHash, d.Specialization,
		d.Experience, d.Qualifications, d.Location, d.About,
		d.Fee, d.Availability, d.Patients, d.Rating,
		d.Schedule, d.ImageURL, d.ImageAssetID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("doctor email already registered")
		}
		return apperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor not found")
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor not found")
	}
	return nil
}

// ListWithStats joins the appointments table and computes the per-doctor
// aggregates in one pass. The total count applies the same filter but is
// independent of the page window.
func (r *doctorRepoPG) ListWithStats(ctx context.Context, query string, limit, offset int) ([]*WithStats, int, error) {
	const filter = `($1 = '' OR d.name ILIKE '%'||$1||'%'
		OR d.specialization ILIKE '%'||$1||'%'
		OR d.email ILIKE '%'||$1||'%')`

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM doctors d WHERE `+filter, query).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+doctorColsAliased+`,
			COUNT(a.id) AS appointments_total,
			COUNT(a.id) FILTER (WHERE a.status = 'completed') AS appointments_completed,
			COUNT(a.id) FILTER (WHERE a.status = 'canceled') AS appointments_canceled,
			COALESCE(SUM(a.fee) FILTER (WHERE a.status = 'completed'), 0) AS earnings
		FROM doctors d
		LEFT JOIN appointments a ON a.doctor_id = d.id
		WHERE `+filter+`
		GROUP BY d.id
		ORDER BY d.name ASC
		LIMIT $2 OFFSET $3`, query, limit, offset)
	if err != nil {
		return nil, 0, apperr.Storage(err)
	}
	defer rows.Close()

	var items []*WithStats
	for rows.Next() {
		var d Doctor
		var st Stats
		err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.Specialization,
			&d.Experience, &d.Qualifications, &d.Location, &d.About,
			&d.Fee, &d.LegacyFees, &d.Availability, &d.Patients, &d.Rating,
			&d.Schedule, &d.ImageURL, &d.ImageAssetID, &d.CreatedAt, &d.UpdatedAt,
			&st.AppointmentsTotal, &st.AppointmentsCompleted,
			&st.AppointmentsCanceled, &st.Earnings)
		if err != nil {
			return nil, 0, apperr.Storage(err)
		}
		items = append(items, &WithStats{ClientView: d.ClientView(), Stats: st})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err)
	}
	return items, total, nil
}

// doctorColsAliased is doctorCols with the d. alias for the joined stats query.
const doctorColsAliased = `d.id, d.name, d.email, d.password_hash, d.specialization,
	d.experience, d.qualifications, d.location, d.about,
	d.fee, d.fees, d.availability, d.patients, d.rating,
	d.schedule, d.image_url, d.image_asset_id, d.created_at, d.updated_at`
