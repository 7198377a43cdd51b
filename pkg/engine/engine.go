package engine

import (
	"errors"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/gokaycavdar/go-senderinfo/pkg/geoip"
	"github.com/gokaycavdar/go-senderinfo/pkg/locale"
	"github.com/gokaycavdar/go-senderinfo/pkg/logging"
	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

// Names of the headers a derivation reads.
const (
	HeaderAcceptLanguage = "Accept-Language"
	HeaderUserAgent      = "User-Agent"
)

// ErrUndecodableHeader is reported for header values that are not plain
// visible ASCII text.
var ErrUndecodableHeader = errors.New("header value is not valid text")

// Source supplies the inputs of a derivation: request headers and the
// address of the connection counterpart.
type Source interface {
	// Header returns the raw value of the named header. The name is matched
	// case-insensitively.
	Header(name string) (string, bool)
	// RemoteAddr returns the remote address as reported by the connection.
	RemoteAddr() (string, bool)
}

// Locator resolves an address to a GeoRecord. A nil record or an error are
// both treated as "no location data".
type Locator interface {
	Lookup(ip net.IP) (*models.GeoRecord, error)
}

// Engine derives sender metadata for inbound connections.
//
// An Engine holds no per-request state and may be shared between
// goroutines as long as its Locator may be.
type Engine struct {
	locator Locator
	log     *logrus.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the logger used for decode and lookup failures.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an Engine. A nil locator disables geographic lookups.
func New(locator Locator, opts ...Option) *Engine {
	e := &Engine{
		locator: locator,
		log:     logging.Log(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Derive builds the SenderData for one connection.
//
// Every step is independent: a bad header, a missing address or a failed
// lookup only leaves the affected fields unset. Derive never fails.
func (e *Engine) Derive(src Source) models.SenderData {
	var sender models.SenderData

	langs := e.preferences(src)

	if ua, ok := e.headerText(src, HeaderUserAgent); ok {
		sender.UserAgent = &ua
	}

	addr, ok := src.RemoteAddr()
	if !ok {
		return sender
	}
	sender.Addr = &addr

	ip := net.ParseIP(addr)
	if ip == nil || e.locator == nil {
		return sender
	}

	record, err := e.locator.Lookup(ip)
	if err != nil || record == nil {
		e.log.WithError(err).
			WithField(logging.FieldAddrPrefix, geoip.MaskIP(addr)).
			Debug("No location data for sender")
		return sender
	}

	if record.City != nil {
		sender.City = selectName(langs, record.City.Names)
	}
	if record.Country != nil {
		sender.Country = selectName(langs, record.Country.Names)
	}
	// Only the top level subdivision is used as region.
	if region := record.Region(); region != nil {
		sender.Region = selectName(langs, region.Names)
	}

	return sender
}

func (e *Engine) preferences(src Source) []string {
	header, ok := e.headerText(src, HeaderAcceptLanguage)
	return locale.Preferences(header, ok)
}

// headerText returns the named header as text. Undecodable values are logged
// and reported as absent.
func (e *Engine) headerText(src Source, name string) (string, bool) {
	raw, ok := src.Header(name)
	if !ok {
		return "", false
	}
	text, err := decodeHeader(raw)
	if err != nil {
		e.log.WithError(err).WithField(logging.FieldHeader, name).Warn("Ignoring request header")
		return "", false
	}
	return text, true
}

func decodeHeader(raw string) (string, error) {
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\t' && (c < 0x20 || c > 0x7e) {
			return "", ErrUndecodableHeader
		}
	}
	return raw, nil
}

func selectName(langs []string, names map[string]string) *string {
	name, ok := locale.Select(langs, names)
	if !ok {
		return nil
	}
	return &name
}
