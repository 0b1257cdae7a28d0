package inventory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/models"
)

// Toggleable field names accepted by Toggle.
const (
	FieldAvailable = "available"
	FieldFeatured  = "featured"
	FieldActive    = "active"
)

// Filter narrows the public listing. Zero values are no-ops.
type Filter struct {
	Available bool
	Featured  bool
	Condition string
	Make      string
	Year      int
}

// Match applies the filter chain: active first, then availability, featured,
// condition (case-insensitive equality), make (case-insensitive substring),
// year (exact).
func (f Filter) Match(t *models.Truck) bool {
	if !t.IsActive {
		return false
	}
	if f.Available && !t.IsAvailable {
		return false
	}
	if f.Featured && !t.IsFeatured {
		return false
	}
	if f.Condition != "" && !strings.EqualFold(t.Condition, f.Condition) {
		return false
	}
	if f.Make != "" && !strings.Contains(strings.ToLower(t.Make), strings.ToLower(f.Make)) {
		return false
	}
	if f.Year != 0 && t.Year != f.Year {
		return false
	}
	return true
}

// Listing is the result of List.
type Listing struct {
	Trucks      []models.Truck `json:"trucks"`
	Total       int            `json:"total"`
	LastUpdated time.Time      `json:"lastUpdated"`
	Checksum    string         `json:"-"`
}

// ToggleResult reports the flipped field.
type ToggleResult struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	NewValue bool   `json:"newValue"`
}

// List returns active trucks matching f in document order.
func (s *Service) List(ctx context.Context, f Filter) (*Listing, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Truck, 0, len(doc.Trucks))
	for i := range doc.Trucks {
		if f.Match(&doc.Trucks[i]) {
			out = append(out, doc.Trucks[i])
		}
	}
	return &Listing{
		Trucks:      out,
		Total:       len(out),
		LastUpdated: doc.LastUpdated,
		Checksum:    doc.Checksum,
	}, nil
}

// Get returns an active truck. Inactive trucks are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*models.Truck, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.TruckIndex(id)
	if i < 0 || !doc.Trucks[i].IsActive {
		return nil, apperr.NotFound("Truck")
	}
	t := doc.Trucks[i]
	return &t, nil
}

// Create adds a new listing.
func (s *Service) Create(ctx context.Context, in CreateTruckInput) (*models.Truck, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := TruckID(in.Year, in.Make, in.Model, in.StockNumber, in.VINNumber, now)
	if doc.TruckIndex(id) >= 0 {
		return nil, apperr.Duplicate(apperr.CodeDuplicateTruck, "Truck with this combination already exists")
	}

	t := models.Truck{
		ID:             id,
		Year:           in.Year,
		Make:           in.Make,
		Model:          in.Model,
		StockNumber:    in.StockNumber,
		VINNumber:      in.VINNumber,
		ModelCode:      in.ModelCode,
		Condition:      in.Condition,
		Price:          in.Price,
		Overview:       in.Overview,
		Engine:         in.Engine,
		Transmission:   in.Transmission,
		Drivetrain:     in.Drivetrain,
		ExteriorColor:  in.ExteriorColor,
		InteriorColor:  in.InteriorColor,
		IsAvailable:    boolOr(in.IsAvailable, true),
		IsFeatured:     boolOr(in.IsFeatured, false),
		IsActive:       true,
		Images:         in.Images,
		Specifications: in.Specifications,
		DateAdded:      now,
		LastModified:   now,
	}
	if t.Images == nil {
		t.Images = []models.Image{}
	}

	doc.Trucks = append(doc.Trucks, t)
	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("inventory: truck created", slog.String("id", id))
	return &t, nil
}

// Update merges the supplied fields onto the truck with id. When a field the
// id derives from is supplied the id is recomputed; a collision with another
// truck aborts the whole update.
func (s *Service) Update(ctx context.Context, id string, in UpdateTruckInput) (*models.Truck, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.TruckIndex(id)
	if i < 0 {
		return nil, apperr.NotFound("Truck")
	}

	if in.StockNumber != nil && *in.StockNumber != "" {
		for j := range doc.Trucks {
			if j != i && doc.Trucks[j].StockNumber == *in.StockNumber {
				return nil, apperr.Duplicate(apperr.CodeDuplicateStock, "Stock number already exists")
			}
		}
	}

	t := doc.Trucks[i]
	merge(&t, &in)
	t.LastModified = s.now()

	if in.touchesID() {
		newID := TruckID(t.Year, t.Make, t.Model, t.StockNumber, t.VINNumber, t.DateAdded)
		if newID != t.ID {
			for j := range doc.Trucks {
				if j != i && doc.Trucks[j].ID == newID {
					return nil, apperr.Duplicate(apperr.CodeIDConflict, "Updated truck data conflicts with existing trucks")
				}
			}
			t.ID = newID
		}
	}

	doc.Trucks[i] = t
	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("inventory: truck updated", slog.String("id", id), slog.String("new_id", t.ID))
	return &t, nil
}

// Delete removes the truck from the collection and returns it.
func (s *Service) Delete(ctx context.Context, id string) (*models.Truck, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.TruckIndex(id)
	if i < 0 {
		return nil, apperr.NotFound("Truck")
	}
	deleted := doc.Trucks[i]
	doc.Trucks = append(doc.Trucks[:i], doc.Trucks[i+1:]...)

	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("inventory: truck deleted", slog.String("id", id))
	return &deleted, nil
}

// Toggle flips one of available, featured or active. Unknown field names are
// rejected before the store is read.
func (s *Service) Toggle(ctx context.Context, id, field string) (*ToggleResult, error) {
	var (
		name string
		get  func(*models.Truck) *bool
	)
	switch field {
	case FieldAvailable:
		name, get = "isAvailable", func(t *models.Truck) *bool { return &t.IsAvailable }
	case FieldFeatured:
		name, get = "isFeatured", func(t *models.Truck) *bool { return &t.IsFeatured }
	case FieldActive:
		name, get = "isActive", func(t *models.Truck) *bool { return &t.IsActive }
	default:
		return nil, apperr.Validation(apperr.CodeInvalidField, "Invalid field. Must be available, featured, or active", nil)
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := doc.TruckIndex(id)
	if i < 0 {
		return nil, apperr.NotFound("Truck")
	}
	t := &doc.Trucks[i]
	p := get(t)
	*p = !*p
	t.LastModified = s.now()

	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("inventory: truck toggled", slog.String("id", id), slog.String("field", name), slog.Bool("value", *p))
	return &ToggleResult{ID: id, Field: name, NewValue: *p}, nil
}

func merge(t *models.Truck, in *UpdateTruckInput) {
	setInt(&t.Year, in.Year)
	setString(&t.Make, in.Make)
	setString(&t.Model, in.Model)
	setString(&t.StockNumber, in.StockNumber)
	setString(&t.VINNumber, in.VINNumber)
	setString(&t.ModelCode, in.ModelCode)
	setString(&t.Condition, in.Condition)
	setString(&t.Price, in.Price)
	setString(&t.Overview, in.Overview)
	setString(&t.Engine, in.Engine)
	setString(&t.Transmission, in.Transmission)
	setString(&t.Drivetrain, in.Drivetrain)
	setString(&t.ExteriorColor, in.ExteriorColor)
	setString(&t.InteriorColor, in.InteriorColor)
	setBool(&t.IsAvailable, in.IsAvailable)
	setBool(&t.IsFeatured, in.IsFeatured)
	setBool(&t.IsActive, in.IsActive)
	if in.Images != nil {
		t.Images = *in.Images
		if t.Images == nil {
			t.Images = []models.Image{}
		}
	}
	if in.Specifications != nil {
		t.Specifications = in.Specifications
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
