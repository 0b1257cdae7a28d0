package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/bhbtrucksales/storefront/internal/apperr"
	"github.com/bhbtrucksales/storefront/internal/models"
)

// AnnouncementInput is the editable part of the announcement bar.
type AnnouncementInput struct {
	IsActive bool   `json:"isActive"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// SiteSettingsInput replaces the stored site settings. Absent sections keep
// their stored value.
type SiteSettingsInput struct {
	Announcement *AnnouncementInput `json:"announcement"`
	Banner       *models.Picture    `json:"banner"`
	Logo         *models.Picture    `json:"logo"`
}

// Validate implements validation.Validatable.
func (in SiteSettingsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Announcement),
		validation.Field(&in.Banner, validation.By(validatePicture)),
		validation.Field(&in.Logo, validation.By(validatePicture)),
	)
}

func validatePicture(value any) error {
	p, _ := value.(*models.Picture)
	if p == nil {
		return nil
	}
	if len([]rune(p.ImageURL)) > 500 {
		return errors.New("image url too long")
	}
	if len([]rune(p.AltText)) > 200 {
		return errors.New("alt text too long")
	}
	return nil
}

// Validate implements validation.Validatable.
func (a AnnouncementInput) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Title, validation.Length(0, 200)),
		validation.Field(&a.Message, validation.Length(0, 1000)),
	)
}

// AboutPageInput replaces the about page.
type AboutPageInput struct {
	Title   string           `json:"title"`
	Content []models.Section `json:"content"`
}

// Validate implements validation.Validatable.
func (in AboutPageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Length(0, 200)),
		validation.Field(&in.Content, validation.By(validateSections)),
	)
}

func validateSections(value any) error {
	sections, _ := value.([]models.Section)
	for i, sec := range sections {
		switch sec.Type {
		case models.SectionParagraph:
			if len([]rune(sec.Text)) > 10000 {
				return fmt.Errorf("section %d: text too long", i)
			}
		case models.SectionImage:
			if strings.TrimSpace(sec.URL) == "" {
				return fmt.Errorf("section %d: image url is required", i)
			}
			if len([]rune(sec.URL)) > 500 || len([]rune(sec.Caption)) > 500 {
				return fmt.Errorf("section %d: image fields too long", i)
			}
		default:
			return fmt.Errorf("section %d: type must be %q or %q", i, models.SectionParagraph, models.SectionImage)
		}
	}
	return nil
}

// SiteSettings returns the stored site settings.
func (s *Service) SiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &doc.SiteSettings, nil
}

// UpdateSiteSettings applies in. Activating an announcement, or changing the
// text of an active one, stamps its creation time.
func (s *Service) UpdateSiteSettings(ctx context.Context, in SiteSettingsInput) (*models.SiteSettings, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	settings := &doc.SiteSettings
	if a := in.Announcement; a != nil {
		prev := settings.Announcement
		next := models.Announcement{
			IsActive:  a.IsActive,
			Title:     strings.TrimSpace(a.Title),
			Message:   strings.TrimSpace(a.Message),
			CreatedAt: prev.CreatedAt,
		}
		if next.IsActive && (!prev.IsActive || next.Title != prev.Title || next.Message != prev.Message) {
			next.CreatedAt = s.now()
		}
		settings.Announcement = next
	}
	if in.Banner != nil {
		settings.Banner = *in.Banner
	}
	if in.Logo != nil {
		settings.Logo = *in.Logo
	}

	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("inventory: site settings updated", slog.Bool("announcement_active", settings.Announcement.IsActive))
	return settings, nil
}

// AboutPage returns the stored about page.
func (s *Service) AboutPage(ctx context.Context) (*models.AboutPage, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &doc.AboutPage, nil
}

// UpdateAboutPage replaces the about page.
func (s *Service) UpdateAboutPage(ctx context.Context, in AboutPageInput) (*models.AboutPage, error) {
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	content := in.Content
	if content == nil {
		content = []models.Section{}
	}
	doc.AboutPage = models.AboutPage{Title: strings.TrimSpace(in.Title), Content: content}

	if err := s.store.Write(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("inventory: about page updated", slog.Int("sections", len(content)))
	return &doc.AboutPage, nil
}
