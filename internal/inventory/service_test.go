package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/models"
	"github.com/bhbtrucksales/storefront/internal/storage"
	"github.com/bhbtrucksales/storefront/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *storage.JSONStore, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(testutil.Epoch)
	_, store := testutil.TestStore(t, clock)
	svc := NewService(store, WithClock(clock.Now), WithLogger(testutil.Logger()))
	return svc, store, clock
}

func westernStar() CreateTruckInput {
	return CreateTruckInput{
		Year:        2025,
		Make:        "WESTERN STAR",
		Model:       "49X",
		StockNumber: "WC2899",
		Price:       "Call for price",
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	return e.Code
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestTruckID(t *testing.T) {
	created := time.UnixMilli(1718000000000)
	tests := []struct {
		name                  string
		year                  int
		mk, model, stock, vin string
		want                  string
	}{
		{"stock number", 2025, "WESTERN STAR", "49X", "WC2899", "", "2025-western-star-49x-wc2899"},
		{"vin fallback", 2020, "Kenworth", "T680", "", "1XKYD49X", "2020-kenworth-t680-1xkyd49x"},
		{"timestamp fallback", 2019, "Mack", "Anthem", "", "", "2019-mack-anthem-1718000000000"},
		{"punctuation stripped", 2021, "Freightliner", "Cascadia 126 (Day Cab)", "A/1", "", "2021-freightliner-cascadia-126-day-cab-a1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruckID(tt.year, tt.mk, tt.model, tt.stock, tt.vin, created))
		})
	}
}

func TestCreate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	assert.Equal(t, "2025-western-star-49x-wc2899", truck.ID)
	assert.True(t, truck.IsActive)
	assert.True(t, truck.IsAvailable, "isAvailable defaults to true")
	assert.False(t, truck.IsFeatured)
	assert.Equal(t, testutil.Epoch, truck.DateAdded)
	assert.Equal(t, truck.DateAdded, truck.LastModified)
	assert.NotNil(t, truck.Images)

	got, err := svc.Get(ctx, truck.ID)
	require.NoError(t, err)
	assert.Equal(t, truck.Make, got.Make)
}

func TestCreateDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	_, err = svc.Create(ctx, westernStar())
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, apperr.CodeDuplicateTruck, codeOf(t, err))
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := westernStar()
	in.Year = 1700
	in.Make = "  "
	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Contains(t, e.Details, "year")
	assert.Contains(t, e.Details, "make")

	in = westernStar()
	in.Images = []models.Image{{URL: "/a.jpg", IsPrimary: true}, {URL: "/b.jpg", IsPrimary: true}}
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, apperr.ErrValidation)

	in = westernStar()
	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}
	in.Specifications = map[string]any{"engine": map[string]any{"notes": string(long)}}
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateRejectsTwoPrimaryImages(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)

	images := []models.Image{{URL: "/a.jpg", IsPrimary: true}, {URL: "/b.jpg", IsPrimary: true}}
	_, err = svc.Update(ctx, truck.ID, UpdateTruckInput{Images: &images})
	require.ErrorIs(t, err, apperr.ErrValidation)

	images[1].IsPrimary = false
	updated, err := svc.Update(ctx, truck.ID, UpdateTruckInput{Images: &images})
	require.NoError(t, err)
	assert.Len(t, updated.Images, 2)
}

func TestUpdateRecomputesID(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	clock.Advance(time.Hour)

	updated, err := svc.Update(ctx, truck.ID, UpdateTruckInput{Model: strPtr("57X")})
	require.NoError(t, err)
	assert.Equal(t, "2025-western-star-57x-wc2899", updated.ID)
	assert.Equal(t, testutil.Epoch, updated.DateAdded)
	assert.Equal(t, testutil.Epoch.Add(time.Hour), updated.LastModified)

	_, err = svc.Get(ctx, truck.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateKeepsIDWithoutIdentityFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	in := westernStar()
	in.StockNumber = ""
	truck, err := svc.Create(ctx, in)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, truck.ID, UpdateTruckInput{Price: strPtr("$150,000"), IsFeatured: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, truck.ID, updated.ID)
	assert.Equal(t, "$150,000", updated.Price)
	assert.True(t, updated.IsFeatured)

	// Timestamp-suffixed ids stay stable when an identity field is re-sent.
	again, err := svc.Update(ctx, truck.ID, UpdateTruckInput{Year: intPtr(2025)})
	require.NoError(t, err)
	assert.Equal(t, truck.ID, again.ID)
}

func TestUpdateDuplicateStock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	other := westernStar()
	other.Model = "57X"
	other.StockNumber = "WC3000"
	b, err := svc.Create(ctx, other)
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, UpdateTruckInput{StockNumber: strPtr(a.StockNumber)})
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, apperr.CodeDuplicateStock, codeOf(t, err))

	// Re-sending a truck's own stock number is fine.
	_, err = svc.Update(ctx, b.ID, UpdateTruckInput{StockNumber: strPtr("WC3000")})
	require.NoError(t, err)
}

func TestUpdateIDConflict(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	other := westernStar()
	other.Model = "57X"
	other.StockNumber = ""
	other.VINNumber = "WC2899"
	b, err := svc.Create(ctx, other)
	require.NoError(t, err)

	// Without a stock number the VIN is the suffix, so matching the model
	// collides with the first truck's slug.
	_, err = svc.Update(ctx, b.ID, UpdateTruckInput{Model: strPtr("49X"), Price: strPtr("$1")})
	require.ErrorIs(t, err, apperr.ErrDuplicate)
	assert.Equal(t, apperr.CodeIDConflict, codeOf(t, err))

	doc, err := store.Read(ctx)
	require.NoError(t, err)
	i := doc.TruckIndex(b.ID)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "57X", doc.Trucks[i].Model, "conflicting update must not be partially applied")
	assert.Empty(t, doc.Trucks[i].Price)
	assert.GreaterOrEqual(t, doc.TruckIndex(a.ID), 0)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), "nope", UpdateTruckInput{Price: strPtr("1")})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)

	res, err := svc.Toggle(ctx, truck.ID, FieldFeatured)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{ID: truck.ID, Field: "isFeatured", NewValue: true}, res)

	res, err = svc.Toggle(ctx, truck.ID, FieldFeatured)
	require.NoError(t, err)
	assert.False(t, res.NewValue, "toggling twice restores the original value")

	_, err = svc.Toggle(ctx, truck.ID, "price")
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, apperr.CodeInvalidField, codeOf(t, err))

	_, err = svc.Toggle(ctx, "missing", FieldActive)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSoftDeleteHidesFromPublicReads(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, truck.ID, FieldActive)
	require.NoError(t, err)

	list, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	_, err = svc.Get(ctx, truck.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, truck.ID)
	require.NoError(t, err)
	assert.Equal(t, truck.ID, deleted.ID)

	doc, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Trucks)

	_, err = svc.Delete(ctx, truck.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListFilters(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seed := []CreateTruckInput{
		{Year: 2025, Make: "Western Star", Model: "49X", StockNumber: "A1", Condition: "New", IsFeatured: boolPtr(true)},
		{Year: 2020, Make: "Kenworth", Model: "T680", StockNumber: "A2", Condition: "Used"},
		{Year: 2025, Make: "Kenworth", Model: "W990", StockNumber: "A3", Condition: "new", IsAvailable: boolPtr(false)},
	}
	for _, in := range seed {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"A1", "A2", "A3"}},
		{"available", Filter{Available: true}, []string{"A1", "A2"}},
		{"featured", Filter{Featured: true}, []string{"A1"}},
		{"condition case-insensitive", Filter{Condition: "NEW"}, []string{"A1", "A3"}},
		{"make substring", Filter{Make: "worth"}, []string{"A2", "A3"}},
		{"year", Filter{Year: 2025}, []string{"A1", "A3"}},
		{"combined", Filter{Make: "ken", Year: 2025}, []string{"A3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			var got []string
			for _, tr := range list.Trucks {
				got = append(got, tr.StockNumber)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), list.Total)
			assert.NotEmpty(t, list.Checksum)
		})
	}
}

func TestSiteSettings(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()

	settings, err := svc.UpdateSiteSettings(ctx, SiteSettingsInput{
		Announcement: &AnnouncementInput{IsActive: true, Title: "Sale", Message: "10% off"},
		Logo:         &models.Picture{ImageURL: "/uploads/general/logo.png", AltText: "BHB"},
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch, settings.Announcement.CreatedAt)
	assert.Equal(t, "BHB", settings.Logo.AltText)

	clock.Advance(time.Minute)
	settings, err = svc.UpdateSiteSettings(ctx, SiteSettingsInput{
		Announcement: &AnnouncementInput{IsActive: true, Title: "Sale", Message: "10% off"},
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch, settings.Announcement.CreatedAt, "unchanged announcement keeps its stamp")
	assert.Equal(t, "BHB", settings.Logo.AltText, "absent sections are kept")

	got, err := svc.SiteSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sale", got.Announcement.Title)
}

func TestAboutPage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateAboutPage(ctx, AboutPageInput{
		Title:   "About",
		Content: []models.Section{{Type: "video", URL: "x"}},
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	page, err := svc.UpdateAboutPage(ctx, AboutPageInput{
		Title: "About BHB",
		Content: []models.Section{
			{Type: models.SectionParagraph, Text: "Family owned since 1998."},
			{Type: models.SectionImage, URL: "/uploads/general/shop.jpg", Caption: "Our shop"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)

	got, err := svc.AboutPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "About BHB", got.Title)
}

// barrierStore holds every Read until n callers have read, so their
// read-modify-write cycles overlap.
type barrierStore struct {
	storage.DocumentStore
	n       int
	mu      sync.Mutex
	readers int
	release chan struct{}
	writeMu sync.Mutex
	// committed is called, under writeMu, after each successful write.
	committed func(*models.Document)
}

func (b *barrierStore) Read(ctx context.Context) (*models.Document, error) {
	doc, err := b.DocumentStore.Read(ctx)
	b.mu.Lock()
	b.readers++
	if b.readers == b.n {
		close(b.release)
	}
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return doc, err
}

func (b *barrierStore) Write(ctx context.Context, doc *models.Document) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.DocumentStore.Write(ctx, doc); err != nil {
		return err
	}
	if b.committed != nil {
		b.committed(doc)
	}
	return nil
}

func TestConcurrentMutationsLastWriterWins(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	other := westernStar()
	other.StockNumber = "WC3000"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	racy := NewService(&barrierStore{DocumentStore: store, n: 2, release: make(chan struct{})},
		WithClock(clock.Now), WithLogger(testutil.Logger()))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"2025-western-star-49x-wc2899", "2025-western-star-49x-wc3000"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = racy.Toggle(ctx, id, FieldFeatured)
		}()
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))

	doc, err := store.Read(context.Background())
	require.NoError(t, err)
	featured := 0
	for _, tr := range doc.Trucks {
		if tr.IsFeatured {
			featured++
		}
	}
	assert.Equal(t, 1, featured, "both toggles succeed but only the last write survives")
}

func TestConcurrentUpdatesKeepLastWriter(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	truck, err := svc.Create(ctx, westernStar())
	require.NoError(t, err)
	require.Equal(t, "Call for price", truck.Price)
	require.Empty(t, truck.Condition)

	var order []string
	racy := NewService(&barrierStore{
		DocumentStore: store,
		n:             2,
		release:       make(chan struct{}),
		committed: func(doc *models.Document) {
			tr := doc.Trucks[0]
			switch {
			case tr.Price == "A":
				order = append(order, "price")
			case tr.Condition == "Used":
				order = append(order, "condition")
			}
		},
	}, WithClock(clock.Now), WithLogger(testutil.Logger()))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	updates := []UpdateTruckInput{
		{Price: strPtr("A")},
		{Condition: strPtr("Used")},
	}
	var wg sync.WaitGroup
	errs := make([]error, len(updates))
	for i, in := range updates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = racy.Update(ctx, truck.ID, in)
		}()
	}
	wg.Wait()
	require.NoError(t, errors.Join(errs...))
	require.Len(t, order, 2, "both updates should commit")

	got, err := svc.Get(context.Background(), truck.ID)
	require.NoError(t, err)
	// Both cycles read the same base, so the second commit replaces the first.
	if order[1] == "price" {
		assert.Equal(t, "A", got.Price)
		assert.Empty(t, got.Condition, "first writer's condition should be lost")
	} else {
		assert.Equal(t, "Used", got.Condition)
		assert.Equal(t, "Call for price", got.Price, "first writer's price should be lost")
	}
}
