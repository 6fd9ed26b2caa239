package appointment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/apperr"
)

// CatalogHooks is the slice of the care-service catalog the booking flow
// needs: the fee snapshot and the best-effort running counters.
type CatalogHooks interface {
	ServicePrice(ctx context.Context, serviceID uuid.UUID) (float64, error)
	CountBooking(ctx context.Context, serviceID uuid.UUID) error
	CountCompleted(ctx context.Context, serviceID uuid.UUID) error
	CountCanceled(ctx context.Context, serviceID uuid.UUID) error
}

type Service struct {
	appointments Repository
	catalog      CatalogHooks
	logger       zerolog.Logger
}

func NewService(appointments Repository, catalog CatalogHooks, logger zerolog.Logger) *Service {
	return &Service{appointments: appointments, catalog: catalog, logger: logger}
}

type CreateInput struct {
	DoctorID     uuid.UUID `json:"doctor_id"`
	ServiceID    uuid.UUID `json:"service_id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	PatientName  string    `json:"patient_name"`
	PatientEmail string    `json:"patient_email"`
	PatientPhone string    `json:"patient_phone"`
	// Status is accepted in the payload but ignored: a new appointment is
	// always scheduled.
	Status string `json:"status"`
}

// Create books an appointment for the requesting identity. All fields are
// required; the status is always scheduled regardless of input; owner and
// created_by are both the requester. The fee is the service price at booking
// time, 0 when the service does not resolve. No slot-membership or
// double-booking check is performed.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Appointment, error) {
	if ownerID == "" {
		return nil, apperr.Unauthorized("missing requester identity")
	}
	if in.DoctorID == uuid.Nil {
		return nil, apperr.Validation("doctor_id is required")
	}
	if in.ServiceID == uuid.Nil {
		return nil, apperr.Validation("service_id is required")
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, apperr.Validation("date is required")
	}
	if strings.TrimSpace(in.Time) == "" {
		return nil, apperr.Validation("time is required")
	}
	if strings.TrimSpace(in.PatientName) == "" {
		return nil, apperr.Validation("patient_name is required")
	}
	if strings.TrimSpace(in.PatientEmail) == "" {
		return nil, apperr.Validation("patient_email is required")
	}
	if strings.TrimSpace(in.PatientPhone) == "" {
		return nil, apperr.Validation("patient_phone is required")
	}

	fee, err := s.catalog.ServicePrice(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		OwnerID:      ownerID,
		CreatedBy:    ownerID,
		DoctorID:     in.DoctorID,
		ServiceID:    in.ServiceID,
		Date:         strings.TrimSpace(in.Date),
		Time:         strings.TrimSpace(in.Time),
		PatientName:  strings.TrimSpace(in.PatientName),
		PatientEmail: strings.TrimSpace(in.PatientEmail),
		PatientPhone: strings.TrimSpace(in.PatientPhone),
		Fee:          fee,
		Status:       StatusScheduled,
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	if err := s.catalog.CountBooking(ctx, in.ServiceID); err != nil {
		s.logger.Warn().Err(err).Stringer("service_id", in.ServiceID).Msg("booking counter increment failed")
	}
	return a, nil
}

// ListByOwner returns the requester's appointments in creation order.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*Appointment, error) {
	items, err := s.appointments.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return items, nil
}

// SetStatus applies a status transition. Only the enumerated values are
// accepted; a valid target is applied unconditionally, so repeating a
// transition is idempotent and no terminal-state guard exists.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	target := Status(status)
	if !target.Valid() {
		return nil, apperr.Validation("invalid status %q", status)
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.appointments.UpdateStatus(ctx, id, target); err != nil {
		return nil, err
	}
	previous := a.Status
	a.Status = target

	// Counters only move on an actual outcome change.
	if previous != target {
		var countErr error
		switch target {
		case StatusCompleted:
			countErr = s.catalog.CountCompleted(ctx, a.ServiceID)
		case StatusCanceled:
			countErr = s.catalog.CountCanceled(ctx, a.ServiceID)
		}
		if countErr != nil {
			s.logger.Warn().Err(countErr).Stringer("service_id", a.ServiceID).Msg("outcome counter increment failed")
		}
	}
	return a, nil
}

// GetDetail resolves an appointment with joined doctor and service context.
func (s *Service) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return s.appointments.GetDetail(ctx, id)
}
