package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook/pkg/timeslot"
)

// CareService maps to the care_services table. The counters are incremented
// best-effort by the booking flow and are a separate source of truth from the
// computed per-doctor statistics.
type CareService struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	Name              string            `db:"name" json:"name"`
	About             string            `db:"about" json:"about"`
	ShortDescription  string            `db:"short_description" json:"short_description"`
	Price             float64           `db:"price" json:"price"`
	Available         bool              `db:"available" json:"available"`
	Dates             []string          `db:"dates" json:"dates"`
	Slots             timeslot.Schedule `db:"slots" json:"slots"`
	Instructions      string            `db:"instructions" json:"instructions"`
	ImageURL          string            `db:"image_url" json:"image_url"`
	ImageAssetID      string            `db:"image_asset_id" json:"-"`
	TotalAppointments int               `db:"total_appointments" json:"total_appointments"`
	Completed         int               `db:"completed" json:"completed"`
	Canceled          int               `db:"canceled" json:"canceled"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}
