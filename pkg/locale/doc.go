// Package locale ranks Accept-Language preferences and picks the best
// matching entry from a set of per-language names, such as the place names
// of a GeoIP record.
package locale
