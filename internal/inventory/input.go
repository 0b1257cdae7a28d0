package inventory

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/bhbtrucksales/storefront/internal/models"
)

const maxSpecText = 1000

// CreateTruckInput is the accepted body for a new listing. Server-managed
// fields (id, dateAdded, lastModified, isActive) are not part of it.
type CreateTruckInput struct {
	Year           int            `json:"year"`
	Make           string         `json:"make"`
	Model          string         `json:"model"`
	StockNumber    string         `json:"stockNumber"`
	VINNumber      string         `json:"vinNumber"`
	ModelCode      string         `json:"modelCode"`
	Condition      string         `json:"condition"`
	Price          string         `json:"price"`
	Overview       string         `json:"overview"`
	Engine         string         `json:"engine"`
	Transmission   string         `json:"transmission"`
	Drivetrain     string         `json:"drivetrain"`
	ExteriorColor  string         `json:"exteriorColor"`
	InteriorColor  string         `json:"interiorColor"`
	IsAvailable    *bool          `json:"isAvailable"`
	IsFeatured     *bool          `json:"isFeatured"`
	Images         []models.Image `json:"images"`
	Specifications map[string]any `json:"specifications"`
}

// Normalize trims surrounding whitespace from text fields.
func (in *CreateTruckInput) Normalize() {
	for _, p := range []*string{
		&in.Make, &in.Model, &in.StockNumber, &in.VINNumber, &in.ModelCode,
		&in.Condition, &in.Overview, &in.Engine, &in.Transmission,
		&in.Drivetrain, &in.ExteriorColor, &in.InteriorColor,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// Validate implements validation.Validatable.
func (in CreateTruckInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Year, validation.Required.Error("Year must be a valid number"), validation.Min(1800), validation.Max(2100)),
		validation.Field(&in.Make, validation.Required.Error("Make is required"), validation.Length(1, 100)),
		validation.Field(&in.Model, validation.Required.Error("Model is required"), validation.Length(1, 100)),
		validation.Field(&in.StockNumber, validation.Length(1, 50)),
		validation.Field(&in.VINNumber, validation.Length(0, 50)),
		validation.Field(&in.ModelCode, validation.Length(0, 50)),
		validation.Field(&in.Condition, validation.Length(0, 50)),
		validation.Field(&in.Price, validation.Length(0, 50)),
		validation.Field(&in.Overview, validation.Length(0, 5000)),
		validation.Field(&in.Engine, validation.Length(0, 500)),
		validation.Field(&in.Transmission, validation.Length(0, 500)),
		validation.Field(&in.Drivetrain, validation.Length(0, 100)),
		validation.Field(&in.ExteriorColor, validation.Length(0, 100)),
		validation.Field(&in.InteriorColor, validation.Length(0, 100)),
		validation.Field(&in.Images, validation.By(validateImages)),
		validation.Field(&in.Specifications, validation.By(validateSpecifications)),
	)
}

// UpdateTruckInput is a partial update: nil fields are left untouched.
// Images and Specifications replace the stored value wholesale when present.
type UpdateTruckInput struct {
	Year           *int            `json:"year"`
	Make           *string         `json:"make"`
	Model          *string         `json:"model"`
	StockNumber    *string         `json:"stockNumber"`
	VINNumber      *string         `json:"vinNumber"`
	ModelCode      *string         `json:"modelCode"`
	Condition      *string         `json:"condition"`
	Price          *string         `json:"price"`
	Overview       *string         `json:"overview"`
	Engine         *string         `json:"engine"`
	Transmission   *string         `json:"transmission"`
	Drivetrain     *string         `json:"drivetrain"`
	ExteriorColor  *string         `json:"exteriorColor"`
	InteriorColor  *string         `json:"interiorColor"`
	IsAvailable    *bool           `json:"isAvailable"`
	IsFeatured     *bool           `json:"isFeatured"`
	IsActive       *bool           `json:"isActive"`
	Images         *[]models.Image `json:"images"`
	Specifications map[string]any  `json:"specifications"`
}

// Normalize trims surrounding whitespace from supplied text fields.
func (in *UpdateTruckInput) Normalize() {
	for _, p := range []*string{
		in.Make, in.Model, in.StockNumber, in.VINNumber, in.ModelCode,
		in.Condition, in.Overview, in.Engine, in.Transmission,
		in.Drivetrain, in.ExteriorColor, in.InteriorColor,
	} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

// Validate implements validation.Validatable.
func (in UpdateTruckInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Year, validation.NilOrNotEmpty, validation.Min(1800), validation.Max(2100)),
		validation.Field(&in.Make, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&in.Model, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&in.StockNumber, validation.NilOrNotEmpty, validation.Length(1, 50)),
		validation.Field(&in.VINNumber, validation.Length(0, 50)),
		validation.Field(&in.ModelCode, validation.Length(0, 50)),
		validation.Field(&in.Condition, validation.Length(0, 50)),
		validation.Field(&in.Price, validation.Length(0, 50)),
		validation.Field(&in.Overview, validation.Length(0, 5000)),
		validation.Field(&in.Engine, validation.Length(0, 500)),
		validation.Field(&in.Transmission, validation.Length(0, 500)),
		validation.Field(&in.Drivetrain, validation.Length(0, 100)),
		validation.Field(&in.ExteriorColor, validation.Length(0, 100)),
		validation.Field(&in.InteriorColor, validation.Length(0, 100)),
		validation.Field(&in.Images, validation.By(validateImages)),
		validation.Field(&in.Specifications, validation.By(validateSpecifications)),
	)
}

// touchesID reports whether the update supplies any field the id is derived from.
func (in *UpdateTruckInput) touchesID() bool {
	return in.Year != nil || in.Make != nil || in.Model != nil || in.StockNumber != nil || in.VINNumber != nil
}

func validateImages(value any) error {
	var images []models.Image
	switch v := value.(type) {
	case []models.Image:
		images = v
	case *[]models.Image:
		if v == nil {
			return nil
		}
		images = *v
	default:
		return nil
	}
	primary := 0
	for i, img := range images {
		if len([]rune(img.URL)) > 500 {
			return fmt.Errorf("image %d: URL too long", i)
		}
		if len([]rune(img.Caption)) > 500 {
			return fmt.Errorf("image %d: caption too long", i)
		}
		if img.IsPrimary {
			primary++
		}
	}
	if primary > 1 {
		return errors.New("at most one image may be primary")
	}
	return nil
}

func validateSpecifications(value any) error {
	specs, _ := value.(map[string]any)
	return checkSpecValue(specs)
}

// checkSpecValue walks arbitrary JSON and rejects string leaves over the limit.
func checkSpecValue(v any) error {
	switch t := v.(type) {
	case string:
		if len([]rune(t)) > maxSpecText {
			return errors.New("specification text too long")
		}
	case map[string]any:
		for _, child := range t {
			if err := checkSpecValue(child); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range t {
			if err := checkSpecValue(child); err != nil {
				return err
			}
		}
	}
	return nil
}
