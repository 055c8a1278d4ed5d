// Package sanitizer normalizes free-text accommodation input before it is
// validated and stored.
//
// Every function is idempotent and never fails: bad input collapses to an
// empty string or an empty slice, which validation then rejects.
//
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Locations: collapse whitespace, drop control characters
//   - Amenities: lowercase, collapse whitespace - "Free  WiFi" becomes "free wifi"
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
