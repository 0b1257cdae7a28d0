package models

import "time"

// SiteSettings holds storefront branding and the announcement bar.
type SiteSettings struct {
	Announcement Announcement `json:"announcement"`
	Banner       Picture      `json:"banner"`
	Logo         Picture      `json:"logo"`
}

// Announcement is the dismissible banner shown above the storefront.
type Announcement struct {
	IsActive  bool      `json:"isActive"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Picture references an uploaded image by URL.
type Picture struct {
	ImageURL string `json:"imageUrl"`
	AltText  string `json:"altText"`
}

// Section kinds.
const (
	SectionParagraph = "paragraph"
	SectionImage     = "image"
)

// AboutPage is the editable "about us" page.
type AboutPage struct {
	Title   string    `json:"title"`
	Content []Section `json:"content"`
}

// Section is a tagged variant: paragraphs use Text, images use URL and Caption.
type Section struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// Document is the root object persisted to trucks.json.
type Document struct {
	Trucks       []Truck      `json:"trucks"`
	SiteSettings SiteSettings `json:"siteSettings"`
	AboutPage    AboutPage    `json:"aboutPage"`
	LastUpdated  time.Time    `json:"lastUpdated"`

	// Checksum is the SHA-256 of the bytes the document was read from.
	Checksum string `json:"-"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Trucks:    []Truck{},
		AboutPage: AboutPage{Content: []Section{}},
	}
}

// TruckIndex returns the slice index of the truck with id, or -1.
func (d *Document) TruckIndex(id string) int {
	for i := range d.Trucks {
		if d.Trucks[i].ID == id {
			return i
		}
	}
	return -1
}
