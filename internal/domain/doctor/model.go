package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook/pkg/timeslot"
)

// Availability values for the doctor-level flag. This is distinct from
// slot-level bookability.
const (
	AvailabilityAvailable   = "Available"
	AvailabilityUnavailable = "Unavailable"
)

// Doctor maps to the doctors table.
type Doctor struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	Name           string            `db:"name" json:"name"`
	Email          string            `db:"email" json:"email"`
	PasswordHash   string            `db:"password_hash" json:"-"`
	Specialization string            `db:"specialization" json:"specialization"`
	Experience     string            `db:"experience" json:"experience"`
	Qualifications string            `db:"qualifications" json:"qualifications"`
	Location       string            `db:"location" json:"location"`
	About          string            `db:"about" json:"about"`
	Fee            *float64          `db:"fee" json:"fee,omitempty"`
	LegacyFees     *float64          `db:"fees" json:"fees,omitempty"`
	Availability   string            `db:"availability" json:"availability"`
	Patients       *string           `db:"patients" json:"patients,omitempty"`
	Rating         *float64          `db:"rating" json:"rating,omitempty"`
	Schedule       timeslot.Schedule `db:"schedule" json:"schedule"`
	ImageURL       string            `db:"image_url" json:"image_url"`
	ImageAssetID   string            `db:"image_asset_id" json:"-"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// ClientView is the read-side representation sent to clients. Defaults are
// applied here, on read, never written back to the record.
type ClientView struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Specialization string            `json:"specialization"`
	Experience     string            `json:"experience"`
	Qualifications string            `json:"qualifications"`
	Location       string            `json:"location"`
	About          string            `json:"about"`
	Fee            float64           `json:"fee"`
	Availability   string            `json:"availability"`
	Patients       string            `json:"patients"`
	Rating         float64           `json:"rating"`
	Schedule       timeslot.Schedule `json:"schedule"`
	ImageURL       string            `json:"image_url"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ClientView converts the stored record without mutating it. The schedule is
// never null, availability defaults to Available, patients to the empty
// string, rating to 0, and fee falls back to the legacy fees column.
func (d *Doctor) ClientView() ClientView {
	v := ClientView{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		Specialization: d.Specialization,
		Experience:     d.Experience,
		Qualifications: d.Qualifications,
		Location:       d.Location,
		About:          d.About,
		Availability:   d.Availability,
		Schedule:       timeslot.Normalize(d.Schedule),
		ImageURL:       d.ImageURL,
		CreatedAt:      d.CreatedAt,
	}
	if v.Availability == "" {
		v.Availability = AvailabilityAvailable
	}
	if d.Fee != nil {
		v.Fee = *d.Fee
	} else if d.LegacyFees != nil {
		v.Fee = *d.LegacyFees
	}
	if d.Patients != nil {
		v.Patients = *d.Patients
	}
	if d.Rating != nil {
		v.Rating = *d.Rating
	}
	if v.Schedule == nil {
		v.Schedule = timeslot.Schedule{}
	}
	return v
}

// EffectiveAvailability resolves the stored flag with the read-side default.
func (d *Doctor) EffectiveAvailability() string {
	if d.Availability == "" {
		return AvailabilityAvailable
	}
	return d.Availability
}

// Stats holds per-doctor appointment aggregates, computed fresh on every
// listing. Earnings sum the fee snapshot of completed appointments.
type Stats struct {
	AppointmentsTotal     int     `json:"appointments_total"`
	AppointmentsCompleted int     `json:"appointments_completed"`
	AppointmentsCanceled  int     `json:"appointments_canceled"`
	Earnings              float64 `json:"earnings"`
}

// WithStats pairs a doctor's client view with its computed aggregates.
type WithStats struct {
	ClientView
	Stats Stats `json:"stats"`
}
