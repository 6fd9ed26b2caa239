package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/apperr"
	"github.com/carebook/carebook/internal/platform/imagestore"
	"github.com/carebook/carebook/pkg/pagination"
	"github.com/carebook/carebook/pkg/timeslot"
)

type Service struct {
	services Repository
	images   imagestore.ImageStore
	logger   zerolog.Logger
}

func NewService(services Repository, images imagestore.ImageStore, logger zerolog.Logger) *Service {
	return &Service{services: services, images: images, logger: logger}
}

type Input struct {
	Name             string          `json:"name"`
	About            string          `json:"about"`
	ShortDescription string          `json:"short_description"`
	Price            float64         `json:"price"`
	Available        *bool           `json:"available"`
	Dates            []string        `json:"dates"`
	Slots            json.RawMessage `json:"slots"`
	Instructions     string          `json:"instructions"`
	ImageURL         string          `json:"image_url"`
	ImageAssetID     string          `json:"image_asset_id"`
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if in.Price < 0 {
		return apperr.Validation("price must not be negative")
	}
	return nil
}

// Create adds a care service to the catalog. The slot map goes through the
// slot normalizer; availability defaults to true.
func (s *Service) Create(ctx context.Context, in Input) (*CareService, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	available := true
	if in.Available != nil {
		available = *in.Available
	}
	dates := in.Dates
	if dates == nil {
		dates = []string{}
	}

	cs := &CareService{
		Name:             strings.TrimSpace(in.Name),
		About:            in.About,
		ShortDescription: in.ShortDescription,
		Price:            in.Price,
		Available:        available,
		Dates:            dates,
		Slots:            timeslot.Parse(in.Slots),
		Instructions:     in.Instructions,
		ImageURL:         in.ImageURL,
		ImageAssetID:     in.ImageAssetID,
	}
	if err := s.services.Create(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*CareService, error) {
	return s.services.GetByID(ctx, id)
}

// Update replaces the mutable fields of a care service. Counters are never
// written through this path.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*CareService, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	cs, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cs.Name = strings.TrimSpace(in.Name)
	cs.About = in.About
	cs.ShortDescription = in.ShortDescription
	cs.Price = in.Price
	if in.Available != nil {
		cs.Available = *in.Available
	}
	if in.Dates != nil {
		cs.Dates = in.Dates
	}
	if in.Slots != nil {
		cs.Slots = timeslot.Parse(in.Slots)
	}
	cs.Instructions = in.Instructions
	if in.ImageURL != "" {
		cs.ImageURL = in.ImageURL
	}
	if in.ImageAssetID != "" {
		cs.ImageAssetID = in.ImageAssetID
	}

	if err := s.services.Update(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Delete removes a care service. The image asset cleanup is fire-and-forget
// with respect to the record deletion.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	cs, err := s.services.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.services.Delete(ctx, id); err != nil {
		return err
	}

	if cs.ImageAssetID != "" {
		s.cleanupImage(ctx, cs.ImageAssetID)
	}
	return nil
}

// UpdateImage uploads a new service image and swaps it onto the record. The
// previous asset, if any, is deleted best-effort after the record update.
func (s *Service) UpdateImage(ctx context.Context, id uuid.UUID, r io.Reader, filename string) (*CareService, error) {
	cs, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	asset, err := s.images.Upload(ctx, r, filename)
	if err != nil {
		if errors.Is(err, imagestore.ErrImageEmpty) || errors.Is(err, imagestore.ErrImageTooLarge) {
			return nil, apperr.Validation("%s", err.Error())
		}
		return nil, apperr.Storage(err)
	}

	oldAssetID := cs.ImageAssetID
	cs.ImageURL = asset.URL
	cs.ImageAssetID = asset.ID

	if err := s.services.Update(ctx, cs); err != nil {
		return nil, err
	}

	if oldAssetID != "" {
		s.cleanupImage(ctx, oldAssetID)
	}
	return cs, nil
}

func (s *Service) cleanupImage(ctx context.Context, assetID string) {
	if err := s.images.Delete(ctx, assetID); err != nil {
		s.logger.Warn().Err(err).Str("asset_id", assetID).Msg("image cleanup failed")
	}
}

func (s *Service) List(ctx context.Context, page, limit int) ([]*CareService, int, error) {
	p := pagination.Clamp(page, limit)
	items, total, err := s.services.List(ctx, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*CareService{}
	}
	return items, total, nil
}

// ServicePrice resolves the booking fee snapshot. A service that does not
// resolve yields 0 so the booking can still proceed.
func (s *Service) ServicePrice(ctx context.Context, id uuid.UUID) (float64, error) {
	cs, err := s.services.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return cs.Price, nil
}

// CountBooking, CountCompleted and CountCanceled bump the running counters.
// Callers treat them as best-effort.

func (s *Service) CountBooking(ctx context.Context, id uuid.UUID) error {
	return s.services.Increment(ctx, id, CounterTotal)
}

func (s *Service) CountCompleted(ctx context.Context, id uuid.UUID) error {
	return s.services.Increment(ctx, id, CounterCompleted)
}

func (s *Service) CountCanceled(ctx context.Context, id uuid.UUID) error {
	return s.services.Increment(ctx, id, CounterCanceled)
}
