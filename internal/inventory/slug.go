package inventory

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	slugSpaceRe   = regexp.MustCompile(`[\s\p{Z}]+`)
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9-]`)
)

// TruckID derives the listing slug from year, make, model and the first
// non-empty of stock number, VIN, or the creation time in Unix milliseconds.
// The result is lowercased, whitespace runs become hyphens and every other
// character outside [a-z0-9-] is dropped.
//
//	TruckID(2025, "WESTERN STAR", "49X", "WC2899", "", t) == "2025-western-star-49x-wc2899"
func TruckID(year int, mk, model, stockNumber, vinNumber string, created time.Time) string {
	suffix := stockNumber
	if suffix == "" {
		suffix = vinNumber
	}
	if suffix == "" {
		suffix = strconv.FormatInt(created.UnixMilli(), 10)
	}
	raw := strconv.Itoa(year) + "-" + mk + "-" + model + "-" + suffix
	id := strings.ToLower(raw)
	id = slugSpaceRe.ReplaceAllString(id, "-")
	return slugInvalidRe.ReplaceAllString(id, "")
}
