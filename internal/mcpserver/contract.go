package mcpserver

// TruckFormatGuide describes the truck records returned by the inventory
// tools so that LLM consumers can read them correctly.
const TruckFormatGuide = `# BHB Truck Sales Inventory Format

Every truck returned by list_trucks and get_truck is a JSON object.

## Fields

- id: slug built from year, make, model and stock number (falls back to the
  VIN, then to the creation time in milliseconds), e.g. 2025-western-star-49x-wc2899.
- year, make, model: always present.
- stockNumber, vinNumber, modelCode, condition, price: optional strings.
  price is free text such as "Call for price" or "$150,000".
- overview, engine, transmission, drivetrain, exteriorColor, interiorColor:
  optional descriptive text.
- isAvailable: false once the truck is sold or on hold.
- isFeatured: shown on the storefront home page.
- images: list of {url, caption, isPrimary}; at most one image is primary.
- specifications: free-form nested object, e.g. {"engine": {"make": "Detroit"}}.
- dateAdded, lastModified: RFC 3339 timestamps.

## Rules

1. Only active listings are visible through these tools.
2. Filters combine with AND: available, featured, condition (case-insensitive
   equality), make (case-insensitive substring), year (exact).
3. The tools are read-only. Listings are edited through the admin API.
`
