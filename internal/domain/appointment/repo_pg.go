package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/apperr"
)

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &appointmentRepoPG{pool: pool}
}

const appointmentCols = `id, owner_id, created_by, doctor_id, service_id,
	date, time, patient_name, patient_email, patient_phone,
	fee, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OwnerID, &a.CreatedBy, &a.DoctorID, &a.ServiceID,
		&a.Date, &a.Time, &a.PatientName, &a.PatientEmail, &a.PatientPhone,
		&a.Fee, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Storage(err)
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (id, owner_id, created_by, doctor_id, service_id,
			date, time, patient_name, patient_email, patient_phone, fee, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.OwnerID, a.CreatedBy, a.DoctorID, a.ServiceID,
		a.Date, a.Time, a.PatientName, a.PatientEmail, a.PatientPhone,
		a.Fee, a.Status)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) ListByOwner(ctx context.Context, ownerID string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE owner_id = $1 ORDER BY created_at ASC`,
		ownerID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(err)
	}
	return items, nil
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return apperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}

// GetDetail resolves the appointment together with its doctor and service
// context. The joins are left joins so the detail survives a deleted doctor
// or service record.
func (r *appointmentRepoPG) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT a.id, a.owner_id, a.created_by, a.doctor_id, a.service_id,
			a.date, a.time, a.patient_name, a.patient_email, a.patient_phone,
			a.fee, a.status, a.created_at, a.updated_at,
			COALESCE(d.name, ''), COALESCE(d.specialization, ''),
			COALESCE(s.name, ''), COALESCE(s.about, ''), COALESCE(s.price, 0)
		FROM appointments a
		LEFT JOIN doctors d ON d.id = a.doctor_id
		LEFT JOIN care_services s ON s.id = a.service_id
		WHERE a.id = $1`, id)

	var det Detail
	err := row.Scan(&det.ID, &det.OwnerID, &det.CreatedBy, &det.DoctorID, &det.ServiceID,
		&det.Date, &det.Time, &det.PatientName, &det.PatientEmail, &det.PatientPhone,
		&det.Fee, &det.Status, &det.CreatedAt, &det.UpdatedAt,
		&det.Doctor.Name, &det.Doctor.Specialization,
		&det.Service.Name, &det.Service.Description, &det.Service.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("appointment not found")
		}
		return nil, apperr.Storage(err)
	}
	return &det, nil
}
