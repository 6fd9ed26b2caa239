package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/carebook/carebook/internal/platform/apperr"
	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/internal/platform/imagestore"
	"github.com/carebook/carebook/pkg/pagination"
	"github.com/carebook/carebook/pkg/timeslot"
)

type Service struct {
	doctors Repository
	issuer  *auth.TokenIssuer
	images  imagestore.ImageStore
	logger  zerolog.Logger
}

func NewService(doctors Repository, issuer *auth.TokenIssuer, images imagestore.ImageStore, logger zerolog.Logger) *Service {
	return &Service{doctors: doctors, issuer: issuer, images: images, logger: logger}
}

type RegisterInput struct {
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Password       string          `json:"password"`
	Specialization string          `json:"specialization"`
	Experience     string          `json:"experience"`
	Qualifications string          `json:"qualifications"`
	Location       string          `json:"location"`
	About          string          `json:"about"`
	Fee            *float64        `json:"fee"`
	Availability   string          `json:"availability"`
	Schedule       json.RawMessage `json:"schedule"`
	ImageURL       string          `json:"image_url"`
	ImageAssetID   string          `json:"image_asset_id"`
}

// Register creates a doctor account and returns it with a signed session
// token. The email is lowercased and must be unique; the password is stored
// as a bcrypt hash; the schedule input goes through the slot normalizer.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Doctor, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Name == "" {
		return nil, "", apperr.Validation("name is required")
	}
	if in.Email == "" {
		return nil, "", apperr.Validation("email is required")
	}
	if in.Password == "" {
		return nil, "", apperr.Validation("password is required")
	}
	if in.Availability != "" && in.Availability != AvailabilityAvailable && in.Availability != AvailabilityUnavailable {
		return nil, "", apperr.Validation("availability must be %s or %s", AvailabilityAvailable, AvailabilityUnavailable)
	}
	if in.Fee != nil && *in.Fee < 0 {
		return nil, "", apperr.Validation("fee must not be negative")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperr.Storage(err)
	}

	d := &Doctor{
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   string(hash),
		Specialization: in.Specialization,
		Experience:     in.Experience,
		Qualifications: in.Qualifications,
		Location:       in.Location,
		About:          in.About,
		Fee:            in.Fee,
		Availability:   in.Availability,
		Schedule:       timeslot.Parse(in.Schedule),
		ImageURL:       in.ImageURL,
		ImageAssetID:   in.ImageAssetID,
	}

	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(d.ID.String(), d.Email)
	if err != nil {
		return nil, "", apperr.Storage(err)
	}
	return d, token, nil
}

// Login verifies the credentials and returns the doctor with a fresh token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Doctor, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperr.Validation("email and password are required")
	}

	d, err := s.doctors.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, "", apperr.Unauthorized("invalid email or password")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Unauthorized("invalid email or password")
	}

	token, err := s.issuer.Issue(d.ID.String(), d.Email)
	if err != nil {
		return nil, "", apperr.Storage(err)
	}
	return d, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

type UpdateInput struct {
	Name           *string         `json:"name"`
	Email          *string         `json:"email"`
	Password       *string         `json:"password"`
	Specialization *string         `json:"specialization"`
	Experience     *string         `json:"experience"`
	Qualifications *string         `json:"qualifications"`
	Location       *string         `json:"location"`
	About          *string         `json:"about"`
	Fee            *float64        `json:"fee"`
	Availability   *string         `json:"availability"`
	Patients       *string         `json:"patients"`
	Rating         *float64        `json:"rating"`
	Schedule       json.RawMessage `json:"schedule"`
	ImageURL       *string         `json:"image_url"`
	ImageAssetID   *string         `json:"image_asset_id"`
}

// Update applies a partial update to the doctor's own record. Only the
// authenticated doctor may update itself. A replaced profile image has its
// previous asset deleted best-effort; a failed cleanup is logged and never
// blocks the record mutation.
func (s *Service) Update(ctx context.Context, actorID string, id uuid.UUID, in UpdateInput) (*Doctor, error) {
	if actorID != id.String() {
		return nil, apperr.Forbidden("doctors may only update their own profile")
	}

	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, apperr.Validation("email must not be empty")
		}
		d.Email = email
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperr.Validation("password must not be empty")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		d.PasswordHash = string(hash)
	}
	if in.Specialization != nil {
		d.Specialization = *in.Specialization
	}
	if in.Experience != nil {
		d.Experience = *in.Experience
	}
	if in.Qualifications != nil {
		d.Qualifications = *in.Qualifications
	}
	if in.Location != nil {
		d.Location = *in.Location
	}
	if in.About != nil {
		d.About = *in.About
	}
	if in.Fee != nil {
		if *in.Fee < 0 {
			return nil, apperr.Validation("fee must not be negative")
		}
		d.Fee = in.Fee
	}
	if in.Availability != nil {
		if *in.Availability != AvailabilityAvailable && *in.Availability != AvailabilityUnavailable {
			return nil, apperr.Validation("availability must be %s or %s", AvailabilityAvailable, AvailabilityUnavailable)
		}
		d.Availability = *in.Availability
	}
	if in.Patients != nil {
		d.Patients = in.Patients
	}
	if in.Rating != nil {
		d.Rating = in.Rating
	}
	if in.Schedule != nil {
		d.Schedule = timeslot.Parse(in.Schedule)
	}

	var oldAssetID string
	if in.ImageURL != nil {
		if *in.ImageURL != d.ImageURL {
			oldAssetID = d.ImageAssetID
		}
		d.ImageURL = *in.ImageURL
	}
	if in.ImageAssetID != nil {
		d.ImageAssetID = *in.ImageAssetID
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}

	if oldAssetID != "" && oldAssetID != d.ImageAssetID {
		s.cleanupImage(ctx, oldAssetID)
	}
	return d, nil
}

// ToggleAvailability flips the doctor's availability flag. Self-service only.
func (s *Service) ToggleAvailability(ctx context.Context, actorID string, id uuid.UUID) (*Doctor, error) {
	if actorID != id.String() {
		return nil, apperr.Forbidden("doctors may only toggle their own availability")
	}

	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.EffectiveAvailability() == AvailabilityAvailable {
		d.Availability = AvailabilityUnavailable
	} else {
		d.Availability = AvailabilityAvailable
	}

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes the doctor's own record. The image asset cleanup is
// fire-and-forget with respect to the record deletion.
func (s *Service) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	if actorID != id.String() {
		return apperr.Forbidden("doctors may only delete their own profile")
	}

	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.doctors.Delete(ctx, id); err != nil {
		return err
	}

	if d.ImageAssetID != "" {
		s.cleanupImage(ctx, d.ImageAssetID)
	}
	return nil
}

// List returns doctors with computed appointment statistics. The query is a
// case-insensitive substring match over name, specialization and email.
func (s *Service) List(ctx context.Context, query string, page, limit int) ([]*WithStats, int, error) {
	p := pagination.Clamp(page, limit)
	items, total, err := s.doctors.ListWithStats(ctx, strings.TrimSpace(query), p.Limit, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*WithStats{}
	}
	return items, total, nil
}

// UpdateImage uploads a new profile image and swaps it onto the record. The
// previous asset, if any, is deleted best-effort after the record update.
func (s *Service) UpdateImage(ctx context.Context, actorID string, id uuid.UUID, r io.Reader, filename string) (*Doctor, error) {
	if actorID != id.String() {
		return nil, apperr.Forbidden("doctors may only update their own profile")
	}

	d, err := s.doctors.GetByID(ctx, id)
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

	oldAssetID := d.ImageAssetID
	d.ImageURL = asset.URL
	d.ImageAssetID = asset.ID

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}

	if oldAssetID != "" {
		s.cleanupImage(ctx, oldAssetID)
	}
	return d, nil
}

func (s *Service) cleanupImage(ctx context.Context, assetID string) {
	if err := s.images.Delete(ctx, assetID); err != nil {
		s.logger.Warn().Err(err).Str("asset_id", assetID).Msg("image cleanup failed")
	}
}
