// Package target holds the navigation destination and the messages
// exchanged with the external address resolver.
package target

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/relabs-tech/compass_nav/internal/geo"
	"github.com/relabs-tech/compass_nav/internal/upstream"
)

// Target is where guidance points to.
type Target struct {
	Point geo.Point `json:"point"`
	Label string    `json:"label"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%.5f, %.5f)", t.Label, t.Point.Lat, t.Point.Lon)
}

// New validates a coordinate pair and builds a Target.
func New(lat, lon float64, label string) (Target, error) {
	p := geo.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return Target{}, upstream.New(upstream.SourceResolver, upstream.InvalidCoordinates,
			"lat=%v lon=%v", lat, lon)
	}
	if strings.TrimSpace(label) == "" {
		label = p.String()
	}
	return Target{Point: p, Label: label}, nil
}

// Query asks the resolver to geocode a free-text address.
type Query struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// NewQuery trims the address and tags it with a fresh id. An empty
// address is refused before anything is sent.
func NewQuery(address string) (Query, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Query{}, fmt.Errorf("empty address")
	}
	return Query{ID: uuid.NewString(), Address: address}, nil
}

// Resolution is the resolver's answer. On failure Error carries one of
// no-match, transport-error or invalid-coordinates and the coordinates
// are meaningless.
type Resolution struct {
	ID      string          `json:"id,omitempty"`
	Query   string          `json:"query,omitempty"`
	Lat     *float64        `json:"lat,omitempty"`
	Lon     *float64        `json:"lon,omitempty"`
	Label   string          `json:"label,omitempty"`
	Error   upstream.Reason `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Target converts a resolution into a Target or a categorized error.
// Without a label, the query text is shown instead.
func (r Resolution) Target() (Target, error) {
	if r.Error != "" {
		reason := r.Error
		if !reason.Known() {
			reason = upstream.TransportError
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("address %q", r.Query)
		}
		return Target{}, &upstream.Error{Source: upstream.SourceResolver, Reason: reason, Message: msg}
	}
	if r.Lat == nil || r.Lon == nil || math.IsNaN(*r.Lat) || math.IsNaN(*r.Lon) {
		return Target{}, upstream.New(upstream.SourceResolver, upstream.InvalidCoordinates,
			"missing coordinates for %q", r.Query)
	}
	label := r.Label
	if strings.TrimSpace(label) == "" {
		label = r.Query
	}
	return New(*r.Lat, *r.Lon, label)
}
