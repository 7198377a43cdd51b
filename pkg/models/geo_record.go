package models

// Place is one named entity of a GeoIP record (a city, a country or a
// subdivision). Names maps a language tag ("en", "pt-BR", ...) to the
// localized name.
type Place struct {
	GeoNameID uint
	IsoCode   string
	Names     map[string]string
}

// GeoRecord is the result of a single address lookup.
//
// City and Country are nil when the database has no data for them.
// Subdivisions are ordered from the largest to the smallest region.
type GeoRecord struct {
	City         *Place
	Country      *Place
	Subdivisions []Place
}

// Region returns the top level subdivision, or nil when there is none.
func (r *GeoRecord) Region() *Place {
	if r == nil || len(r.Subdivisions) == 0 {
		return nil
	}
	return &r.Subdivisions[0]
}
