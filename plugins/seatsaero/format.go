package seatsaero

import (
	"fmt"
	"strings"
	"time"
)

const (
	notAvailable  = "N/A"
	unknownSeats  = "?"
	resultSep     = "\n\n---\n\n"
	tripTimeShape = "Jan 2, 2006 3:04 PM MST"
)

// Formatter renders API records as fixed plain-text blocks
type Formatter struct {
	// Location is the zone trip times are shown in
	Location *time.Location
}

// NewFormatter returns a Formatter for loc, or the local zone if loc is nil
func NewFormatter(loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{Location: loc}
}

// FormatAvailability renders the route header and one line per cabin that is
// known to be available
func (f *Formatter) FormatAvailability(a Availability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route: %s → %s\n", a.Route.OriginAirport, a.Route.DestinationAirport)
	fmt.Fprintf(&b, "Date: %s\n", a.Date)
	fmt.Fprintf(&b, "Source: %s\n", a.Route.Source)
	b.WriteString("Available Cabins:\n")

	for _, cabin := range Cabins {
		ca := a.Cabin(cabin)
		if !ca.Available.IsTrue() {
			continue
		}
		fmt.Fprintf(&b, "%s: %s miles + %s (%s seats)\n",
			cabin.Name(), orNA(ca.MileageCost), orNA(ca.Taxes), seatsOr(ca.RemainingSeats, unknownSeats))
	}

	return strings.TrimSpace(b.String())
}

// FormatTrip renders every field of a trip; missing optional values show N/A
func (f *Formatter) FormatTrip(t AvailabilityTrip) string {
	lines := []string{
		"Flight: " + t.FlightNumber,
		fmt.Sprintf("Route: %s → %s", t.OriginAirport, t.DestinationAirport),
		"Departure: " + f.displayTime(t.DepartsAt),
		"Arrival: " + f.displayTime(t.ArrivesAt),
		fmt.Sprintf("Aircraft: %s (%s)", t.AircraftName, t.AircraftCode),
		"Class: " + t.FareClass,
		fmt.Sprintf("Cost: %s miles + %s", orNA(t.MileageCost), orNA(t.Taxes)),
		"Seats: " + seatsOr(t.RemainingSeats, notAvailable),
		fmt.Sprintf("Distance: %d miles", t.Distance),
	}
	return strings.Join(lines, "\n")
}

// FormatRoute renders "<origin> → <destination>: <sources>"
func (f *Formatter) FormatRoute(r RouteInfo) string {
	return fmt.Sprintf("%s → %s: %s", r.Origin, r.Destination, strings.Join(r.Sources, ", "))
}

// displayTime shows an RFC 3339 timestamp in the formatter's zone and
// passes anything else through untouched
func (f *Formatter) displayTime(raw string) string {
	if raw == "" {
		return notAvailable
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(tripTimeShape)
}

func orNA(v *FlexString) string {
	if v == nil || *v == "" {
		return notAvailable
	}
	return v.String()
}

func seatsOr(n *int, fallback string) string {
	if n == nil {
		return fallback
	}
	return itoa(*n)
}
