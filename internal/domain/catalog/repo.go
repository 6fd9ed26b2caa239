package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Counter names the care-service running counters the booking flow bumps.
type Counter string

const (
	CounterTotal     Counter = "total_appointments"
	CounterCompleted Counter = "completed"
	CounterCanceled  Counter = "canceled"
)

type Repository interface {
	Create(ctx context.Context, cs *CareService) error
	GetByID(ctx context.Context, id uuid.UUID) (*CareService, error)
	Update(ctx context.Context, cs *CareService) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*CareService, int, error)
	Increment(ctx context.Context, id uuid.UUID, counter Counter) error
}
