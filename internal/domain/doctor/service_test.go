package doctor

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/apperr"
	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/internal/platform/imagestore"
)

type mockRepo struct {
	doctors map[uuid.UUID]*Doctor
	stats   map[uuid.UUID]Stats
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		doctors: make(map[uuid.UUID]*Doctor),
		stats:   make(map[uuid.UUID]Stats),
	}
}

func (m *mockRepo) Create(_ context.Context, d *Doctor) error {
	for _, existing := range m.doctors {
		if existing.Email == d.Email {
			return apperr.Conflict("doctor email already registered")
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperr.NotFound("doctor not found")
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.Email == email {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("doctor not found")
}

func (m *mockRepo) Update(_ context.Context, d *Doctor) error {
	if _, ok := m.doctors[d.ID]; !ok {
		return apperr.NotFound("doctor not found")
	}
	for id, existing := range m.doctors {
		if id != d.ID && existing.Email == d.Email {
			return apperr.Conflict("doctor email already registered")
		}
	}
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.doctors[id]; !ok {
		return apperr.NotFound("doctor not found")
	}
	delete(m.doctors, id)
	return nil
}

func (m *mockRepo) ListWithStats(_ context.Context, query string, limit, offset int) ([]*WithStats, int, error) {
	q := strings.ToLower(query)
	var matched []*Doctor
	for _, d := range m.doctors {
		if q == "" ||
			strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Specialization), q) ||
			strings.Contains(strings.ToLower(d.Email), q) {
			matched = append(matched, d)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	var items []*WithStats
	for _, d := range matched[offset:end] {
		items = append(items, &WithStats{ClientView: d.ClientView(), Stats: m.stats[d.ID]})
	}
	return items, total, nil
}

type mockImages struct {
	uploads   int
	deleted   []string
	deleteErr error
}

func (m *mockImages) Upload(_ context.Context, _ io.Reader, filename string) (*imagestore.Asset, error) {
	m.uploads++
	return &imagestore.Asset{
		ID:       "asset-" + filename,
		URL:      "https://cdn.example.com/images/" + filename,
		Filename: filename,
	}, nil
}

func (m *mockImages) Delete(_ context.Context, assetID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, assetID)
	return nil
}

func newTestService(repo Repository, images imagestore.ImageStore) *Service {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(repo, issuer, images, zerolog.Nop())
}

func TestService_Register(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockImages{})

	d, token, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Dr. Adams",
		Email:    "  Adams@Clinic.Example ",
		Password: "hunter22",
		Schedule: []byte(`{"2024-06-01": ["9:00 AM", "9:00 AM", "1:30 PM"]}`),
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if token == "" {
		t.Error("expected non-empty token")
	}
	if d.Email != "adams@clinic.example" {
		t.Errorf("expected lowercased trimmed email, got %q", d.Email)
	}
	if d.PasswordHash == "" || d.PasswordHash == "hunter22" {
		t.Error("expected password to be stored as a hash")
	}
	slots := d.Schedule["2024-06-01"]
	if len(slots) != 2 || slots[0] != "9:00 AM" || slots[1] != "1:30 PM" {
		t.Errorf("expected normalized schedule, got %v", slots)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockImages{})
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "a@b.c", Password: "x"},
		{Name: "Dr. A", Password: "x"},
		{Name: "Dr. A", Email: "a@b.c"},
		{Name: "Dr. A", Email: "a@b.c", Password: "x", Availability: "Sometimes"},
	}
	for i, in := range cases {
		if _, _, err := svc.Register(ctx, in); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockImages{})
	ctx := context.Background()

	in := RegisterInput{Name: "Dr. A", Email: "a@clinic.example", Password: "pw"}
	if _, _, err := svc.Register(ctx, in); err != nil {
		t.Fatalf("first Register() error: %v", err)
	}
	_, _, err := svc.Register(ctx, in)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockImages{})
	ctx := context.Background()

	reg, _, err := svc.Register(ctx, RegisterInput{Name: "Dr. A", Email: "a@clinic.example", Password: "correct"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	d, token, err := svc.Login(ctx, "A@Clinic.Example", "correct")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if d.ID != reg.ID {
		t.Error("expected the registered doctor back")
	}
	if token == "" {
		t.Error("expected non-empty token")
	}

	if _, _, err := svc.Login(ctx, "a@clinic.example", "wrong"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("expected unauthorized for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@clinic.example", "correct"); !apperr.IsKind(err, apperr.KindUnauthorized) {
		t.Errorf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestService_Update_SelfOnly(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockImages{})
	ctx := context.Background()

	d, _, err := svc.Register(ctx, RegisterInput{Name: "Dr. A", Email: "a@clinic.example", Password: "pw"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	name := "Dr. Intruder"
	_, err = svc.Update(ctx, uuid.NewString(), d.ID, UpdateInput{Name: &name})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected forbidden for other actor, got %v", err)
	}
}

func TestService_Update_AppliesFields(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockImages{})
	ctx := context.Background()

	d, _, err := svc.Register(ctx, RegisterInput{Name: "Dr. A", Email: "a@clinic.example", Password: "pw"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	specialization := "Cardiology"
	email := "NEW@Clinic.Example"
	fee := 150.0
	updated, err := svc.Update(ctx, d.ID.String(), d.ID, UpdateInput{
		Specialization: &specialization,
		Email:          &email,
		Fee:            &fee,
		Schedule:       []byte(`{"2024-06-02": ["2:00 PM", "9:00 AM"]}`),
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if updated.Specialization != "Cardiology" {
		t.Errorf("expected specialization applied, got %q", updated.Specialization)
	}
	if updated.Email != "new@clinic.example" {
		t.Errorf("expected lowercased email, got %q", updated.Email)
	}
	if updated.Fee == nil || *updated.Fee != 150.0 {
		t.Errorf("expected fee 150, got %v", updated.Fee)
	}
	slots := updated.Schedule["2024-06-02"]
	if len(slots) != 2 || slots[0] != "9:00 AM" || slots[1] != "2:00 PM" {
		t.Errorf("expected re-normalized schedule, got %v", slots)
	}
	// Name stays untouched when not provided.
	if updated.Name != "Dr. A" {
		t.Errorf("expected name unchanged, got %q", updated.Name)
	}
}

func TestService_Update_MalformedScheduleFailsOpen(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockImages{})
	ctx := context.Background()

	d, _, err := svc.Register(ctx, RegisterInput{Name: "Dr. A", Email: "a@clinic.example", Password: "pw"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	updated, err := svc.Update(ctx, d.ID.String(), d.ID, UpdateInput{
		Schedule: []byte(`{not json`),
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if len(updated.Schedule) != 0 {
		t.Errorf("expected empty schedule from malformed input, got %v", updated.Schedule)
	}
}

func TestService_UpdateImage_ReplacesAndCleansUp(t *testing.T) {
	images := &mockImages{}
	svc := newTestService(newMockRepo(), images)
	ctx := context.Background()

	d, _, err := svc.Register(ctx, RegisterInput{
		Name: "Dr. A", Email: "a@clinic.example", Password: "pw",
		ImageURL: "https://cdn.example.com/images/old.png", ImageAssetID: "old-asset",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	updated, err := svc.UpdateImage(ctx, d.ID.String(), d.ID, strings.NewReader("png-bytes"), "new.png")
	if err != nil {
		t.Fatalf("UpdateImage() error: %v", err)
	}
	if updated.ImageAssetID != "asset-new.png" {
		t.Errorf("expected new asset id, got %q", updated.ImageAssetID)
	}
	if len(images.deleted) != 1 || images.deleted[0] != "old-asset" {
		t.Errorf("expected old asset deleted, got %v", images.deleted)
	}
}

func TestService_Delete_SwallowsImageCleanupFailure(t *testing.T) {
	images := &mockImages{deleteErr: errors.New("cdn down")}
	repo := newMockRepo()
	svc := newTestService(repo, images)
	ctx := context.Background()

	d, _, err := svc.Register(ctx, RegisterInput{
		Name: "Dr. A", Email: "a@clinic.example", Password: "pw",
		ImageAssetID: "asset-1",
	})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if err := svc.Delete(ctx, d.ID.String(), d.ID); err != nil {
		t.Fatalf("expected delete to succeed despite cleanup failure, got %v", err)
	}
	if _, err := repo.GetByID(ctx, d.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Error("expected record removed")
	}
}

func TestService_ToggleAvailability(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockImages{})
	ctx := context.Background()

	d, _, err := svc.Register(ctx, RegisterInput{Name: "Dr. A", Email: "a@clinic.example", Password: "pw"})
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	// Unset availability reads as Available, so the first toggle flips to
	// Unavailable.
	toggled, err := svc.ToggleAvailability(ctx, d.ID.String(), d.ID)
	if err != nil {
		t.Fatalf("ToggleAvailability() error: %v", err)
	}
	if toggled.Availability != AvailabilityUnavailable {
		t.Errorf("expected %q, got %q", AvailabilityUnavailable, toggled.Availability)
	}

	toggled, err = svc.ToggleAvailability(ctx, d.ID.String(), d.ID)
	if err != nil {
		t.Fatalf("ToggleAvailability() error: %v", err)
	}
	if toggled.Availability != AvailabilityAvailable {
		t.Errorf("expected %q, got %q", AvailabilityAvailable, toggled.Availability)
	}

	if _, err := svc.ToggleAvailability(ctx, uuid.NewString(), d.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("expected forbidden for other actor, got %v", err)
	}
}

func TestService_List_FilterAndStats(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockImages{})
	ctx := context.Background()

	a, _, _ := svc.Register(ctx, RegisterInput{Name: "Dr. Adams", Email: "adams@clinic.example", Password: "pw", Specialization: "Cardiology"})
	svc.Register(ctx, RegisterInput{Name: "Dr. Brown", Email: "brown@clinic.example", Password: "pw", Specialization: "Dermatology"})

	repo.stats[a.ID] = Stats{AppointmentsTotal: 3, AppointmentsCompleted: 1, AppointmentsCanceled: 1, Earnings: 50}

	items, total, err := svc.List(ctx, "cardio", 1, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 match, got total=%d len=%d", total, len(items))
	}
	st := items[0].Stats
	if st.AppointmentsTotal != 3 || st.AppointmentsCompleted != 1 || st.AppointmentsCanceled != 1 || st.Earnings != 50 {
		t.Errorf("unexpected stats: %+v", st)
	}

	// Doctor with no appointments reports zeroes.
	items, _, err = svc.List(ctx, "brown", 1, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if items[0].Stats.AppointmentsTotal != 0 || items[0].Stats.Earnings != 0 {
		t.Errorf("expected zero stats, got %+v", items[0].Stats)
	}
}

func TestService_List_TotalIndependentOfPage(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockImages{})
	ctx := context.Background()

	for _, name := range []string{"Dr. A", "Dr. B", "Dr. C"} {
		email := strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@clinic.example"
		if _, _, err := svc.Register(ctx, RegisterInput{Name: name, Email: email, Password: "pw"}); err != nil {
			t.Fatalf("Register(%s) error: %v", name, err)
		}
	}

	items, total, err := svc.List(ctx, "", 2, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3 regardless of page, got %d", total)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item on page 2, got %d", len(items))
	}
	if items[0].Name != "Dr. C" {
		t.Errorf("expected name-sorted page, got %q", items[0].Name)
	}

	// Out-of-range values clamp rather than fail.
	items, total, err = svc.List(ctx, "", 0, 500000)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Errorf("expected all 3 doctors, got total=%d len=%d", total, len(items))
	}
}
