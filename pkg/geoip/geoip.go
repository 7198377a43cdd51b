package geoip

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

// ErrNotFound is returned when the database holds no location data for an
// address, which is the case for private and reserved ranges.
var ErrNotFound = errors.New("no location data for address")

// ErrInvalidIP is returned for a nil address.
var ErrInvalidIP = errors.New("invalid ip address")

// Service resolves addresses against a MaxMind City database.
type Service struct {
	cityReader *geoip2.Reader
}

// NewService opens the City .mmdb file at cityDBPath.
func NewService(cityDBPath string) (*Service, error) {
	cityReader, err := geoip2.Open(cityDBPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open city database: %w", err)
	}
	return &Service{cityReader: cityReader}, nil
}

// Close releases the database.
func (s *Service) Close() error {
	if s.cityReader != nil {
		return s.cityReader.Close()
	}
	return nil
}

// Lookup returns the city, country and subdivisions known for ip, with
// their names in every language the database carries.
func (s *Service) Lookup(ip net.IP) (*models.GeoRecord, error) {
	if ip == nil {
		return nil, ErrInvalidIP
	}

	city, err := s.cityReader.City(ip)
	if err != nil {
		return nil, fmt.Errorf("city lookup failed: %w", err)
	}

	record := recordFromCity(city)
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

// recordFromCity maps a geoip2 record. The reader returns a zero value
// record for unknown addresses, so nil is returned when nothing was found.
func recordFromCity(city *geoip2.City) *models.GeoRecord {
	if city == nil {
		return nil
	}

	record := &models.GeoRecord{}
	if len(city.City.Names) > 0 || city.City.GeoNameID != 0 {
		record.City = &models.Place{
			GeoNameID: uint(city.City.GeoNameID),
			Names:     city.City.Names,
		}
	}
	if len(city.Country.Names) > 0 || city.Country.IsoCode != "" {
		record.Country = &models.Place{
			GeoNameID: uint(city.Country.GeoNameID),
			IsoCode:   city.Country.IsoCode,
			Names:     city.Country.Names,
		}
	}
	for _, sub := range city.Subdivisions {
		record.Subdivisions = append(record.Subdivisions, models.Place{
			GeoNameID: uint(sub.GeoNameID),
			IsoCode:   sub.IsoCode,
			Names:     sub.Names,
		})
	}

	if record.City == nil && record.Country == nil && len(record.Subdivisions) == 0 {
		return nil
	}
	return record
}
