package geoip

import (
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

func cityFromJSON(t *testing.T, data string) *geoip2.City {
	t.Helper()
	city := &geoip2.City{}
	require.NoError(t, json.Unmarshal([]byte(data), city))
	return city
}

func TestNewService(t *testing.T) {
	_, err := NewService(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.ErrorContains(t, err, "unable to open city database")
}

func TestService_Lookup(t *testing.T) {
	_, err := (&Service{}).Lookup(nil)
	assert.ErrorIs(t, err, ErrInvalidIP)
}

func Test_recordFromCity(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		city := cityFromJSON(t, `{
			"City": {"GeoNameID": 5391959, "Names": {"en": "San Francisco", "ja": "サンフランシスコ"}},
			"Country": {"GeoNameID": 6252001, "IsoCode": "US", "Names": {"en": "United States", "de": "USA"}},
			"Subdivisions": [
				{"GeoNameID": 5332921, "IsoCode": "CA", "Names": {"en": "California", "fr": "Californie"}},
				{"IsoCode": "SF", "Names": {"en": "Lower"}}
			]
		}`)

		record := recordFromCity(city)

		require.NotNil(t, record)
		require.NotNil(t, record.City)
		assert.Equal(t, uint(5391959), record.City.GeoNameID)
		assert.Equal(t, "San Francisco", record.City.Names["en"])
		require.NotNil(t, record.Country)
		assert.Equal(t, "US", record.Country.IsoCode)
		require.Len(t, record.Subdivisions, 2)
		assert.Equal(t, "Californie", record.Region().Names["fr"])
	})
	t.Run("country only", func(t *testing.T) {
		record := recordFromCity(cityFromJSON(t, `{"Country": {"IsoCode": "NL", "Names": {"nl": "Nederland"}}}`))

		require.NotNil(t, record)
		assert.Nil(t, record.City)
		assert.Nil(t, record.Region())
		assert.Equal(t, "Nederland", record.Country.Names["nl"])
	})
	t.Run("zero record is not found", func(t *testing.T) {
		assert.Nil(t, recordFromCity(&geoip2.City{}))
		assert.Nil(t, recordFromCity(nil))
	})
}

func TestMaskIP(t *testing.T) {
	tests := map[string]string{
		"192.168.1.55":         "192.168.1.0/24",
		"203.0.113.9:51234":    "203.0.113.0/24",
		"2001:db8:1:2:3:4:5:6": "2001:db8:1:2::/64",
		"[2001:db8::1]:443":    "2001:db8::/64",
		"not-an-ip":            "",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskIP(in), in)
	}
}

type stubLocator struct {
	record *models.GeoRecord
	err    error
}

func (s stubLocator) Lookup(net.IP) (*models.GeoRecord, error) {
	return s.record, s.err
}

func TestPrometheusWrapper_Lookup(t *testing.T) {
	ip := net.ParseIP("8.8.8.8")
	found := &models.GeoRecord{Country: &models.Place{IsoCode: "US"}}

	t.Run("counts by outcome", func(t *testing.T) {
		wrapper := NewPrometheusWrapper(stubLocator{record: found})
		record, err := wrapper.Lookup(ip)
		require.NoError(t, err)
		assert.Same(t, found, record)

		wrapper.wrapped = stubLocator{err: ErrNotFound}
		_, err = wrapper.Lookup(ip)
		assert.ErrorIs(t, err, ErrNotFound)

		wrapper.wrapped = stubLocator{err: errors.New("corrupt database")}
		_, _ = wrapper.Lookup(ip)
		_, _ = wrapper.Lookup(ip)

		assert.Equal(t, 1.0, testutil.ToFloat64(wrapper.lookupCount.WithLabelValues(outcomeFound)))
		assert.Equal(t, 1.0, testutil.ToFloat64(wrapper.lookupCount.WithLabelValues(outcomeNotFound)))
		assert.Equal(t, 2.0, testutil.ToFloat64(wrapper.lookupCount.WithLabelValues(outcomeError)))
	})
	t.Run("exposes collectors", func(t *testing.T) {
		assert.Len(t, NewPrometheusWrapper(stubLocator{}).Collectors(), 2)
	})
}
