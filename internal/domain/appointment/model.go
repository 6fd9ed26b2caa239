package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the appointment lifecycle. This vocabulary is canonical:
// the statistics aggregation matches against the same strings.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Appointment maps to the appointments table. Fee is a snapshot of the
// service price at booking time; earnings aggregation sums this snapshot.
type Appointment struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	DoctorID     uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ServiceID    uuid.UUID `db:"service_id" json:"service_id"`
	Date         string    `db:"date" json:"date"`
	Time         string    `db:"time" json:"time"`
	PatientName  string    `db:"patient_name" json:"patient_name"`
	PatientEmail string    `db:"patient_email" json:"patient_email"`
	PatientPhone string    `db:"patient_phone" json:"patient_phone"`
	Fee          float64   `db:"fee" json:"fee"`
	Status       Status    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DoctorInfo is the doctor context joined onto an appointment detail.
type DoctorInfo struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// ServiceInfo is the care-service context joined onto an appointment detail.
type ServiceInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Detail is an appointment with its doctor and service context resolved.
type Detail struct {
	Appointment
	Doctor  DoctorInfo  `json:"doctor"`
	Service ServiceInfo `json:"service"`
}
