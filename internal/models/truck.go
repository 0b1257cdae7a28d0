// Package models defines the domain types persisted in the inventory document.
package models

import "time"

// Truck is one vehicle listing.
type Truck struct {
	ID             string         `json:"id"`
	Year           int            `json:"year"`
	Make           string         `json:"make"`
	Model          string         `json:"model"`
	StockNumber    string         `json:"stockNumber,omitempty"`
	VINNumber      string         `json:"vinNumber,omitempty"`
	ModelCode      string         `json:"modelCode,omitempty"`
	Condition      string         `json:"condition,omitempty"`
	Price          string         `json:"price,omitempty"`
	Overview       string         `json:"overview,omitempty"`
	Engine         string         `json:"engine,omitempty"`
	Transmission   string         `json:"transmission,omitempty"`
	Drivetrain     string         `json:"drivetrain,omitempty"`
	ExteriorColor  string         `json:"exteriorColor,omitempty"`
	InteriorColor  string         `json:"interiorColor,omitempty"`
	IsAvailable    bool           `json:"isAvailable"`
	IsFeatured     bool           `json:"isFeatured"`
	IsActive       bool           `json:"isActive"`
	Images         []Image        `json:"images"`
	Specifications map[string]any `json:"specifications,omitempty"`
	DateAdded      time.Time      `json:"dateAdded"`
	LastModified   time.Time      `json:"lastModified"`
}

// Image is a picture attached to a truck listing.
type Image struct {
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	IsPrimary bool   `json:"isPrimary"`
	Filename  string `json:"filename,omitempty"`
	Size      int64  `json:"size,omitempty"`
}
