package seatsaero

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Cabin is a seats.aero cabin class code
type Cabin string

const (
	CabinEconomy        Cabin = "Y"
	CabinPremiumEconomy Cabin = "W"
	CabinBusiness       Cabin = "J"
	CabinFirst          Cabin = "F"
)

// Cabins lists every cabin class in display order
var Cabins = []Cabin{CabinEconomy, CabinPremiumEconomy, CabinBusiness, CabinFirst}

var cabinNames = map[Cabin]string{
	CabinEconomy:        "Economy",
	CabinPremiumEconomy: "Premium Economy",
	CabinBusiness:       "Business",
	CabinFirst:          "First",
}

// Name returns the display name, or the raw code for unknown cabins
func (c Cabin) Name() string {
	if name, ok := cabinNames[c]; ok {
		return name
	}
	return string(c)
}

// SupportedSources are the mileage programs seats.aero can be queried for
var SupportedSources = []string{
	"aeroplan",
	"aeromexico",
	"alaska",
	"american",
	"avianca",
	"britishairways",
	"cathay",
	"delta",
	"emirates",
	"etihad",
	"flyingblue",
	"frontier",
	"iberia",
	"jetblue",
	"korean",
	"lifemiles",
	"qantas",
	"qatar",
	"sas",
	"singapore",
	"southwest",
	"turkish",
	"united",
	"velocity",
	"virgin",
}

// Tristate is a boolean that can also be unknown
type Tristate uint8

const (
	Unknown Tristate = iota
	False
	True
)

// IsTrue reports whether the value is known to be true
func (t Tristate) IsTrue() bool {
	return t == True
}

// Known reports whether the upstream sent a value at all
func (t Tristate) Known() bool {
	return t != Unknown
}

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// UnmarshalJSON accepts true, false and null
func (t *Tristate) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*t = True
	case "false":
		*t = False
	case "null":
		*t = Unknown
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// MarshalJSON writes unknown as null
func (t Tristate) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		return []byte("null"), nil
	}
	return []byte(t.String()), nil
}

// FlexString holds a value that upstream sends either as a string or a number
type FlexString string

// UnmarshalJSON accepts a JSON string or number
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*s = FlexString(num.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// CabinAvailability is what seats.aero knows about one cabin of an
// availability. Nil pointers mean the field was absent, not zero.
type CabinAvailability struct {
	Available      Tristate    `json:"available"`
	Direct         Tristate    `json:"direct"`
	MileageCost    *FlexString `json:"mileageCost,omitempty"`
	RemainingSeats *int        `json:"remainingSeats,omitempty"`
	Taxes          *FlexString `json:"taxes,omitempty"`
}

// Route identifies an origin, destination and mileage program
type Route struct {
	ID                 string `json:"ID,omitempty"`
	OriginAirport      string `json:"OriginAirport"`
	DestinationAirport string `json:"DestinationAirport"`
	Source             string `json:"Source"`
}

// Availability is one route, date and program combination
type Availability struct {
	ID     string
	Route  Route
	Date   string
	Cabins map[Cabin]CabinAvailability
}

// Cabin returns the record for one cabin; unknown cabins are all-unknown
func (a Availability) Cabin(c Cabin) CabinAvailability {
	return a.Cabins[c]
}

// availabilityWire is the flat upstream shape of an Availability
type availabilityWire struct {
	ID    string `json:"ID"`
	Route Route  `json:"Route"`
	Date  string `json:"Date"`

	YAvailable      Tristate    `json:"YAvailable"`
	YDirect         Tristate    `json:"YDirect"`
	YMileageCost    *FlexString `json:"YMileageCost"`
	YRemainingSeats *int        `json:"YRemainingSeats"`
	YTaxes          *FlexString `json:"YTaxes"`

	WAvailable      Tristate    `json:"WAvailable"`
	WDirect         Tristate    `json:"WDirect"`
	WMileageCost    *FlexString `json:"WMileageCost"`
	WRemainingSeats *int        `json:"WRemainingSeats"`
	WTaxes          *FlexString `json:"WTaxes"`

	JAvailable      Tristate    `json:"JAvailable"`
	JDirect         Tristate    `json:"JDirect"`
	JMileageCost    *FlexString `json:"JMileageCost"`
	JRemainingSeats *int        `json:"JRemainingSeats"`
	JTaxes          *FlexString `json:"JTaxes"`

	FAvailable      Tristate    `json:"FAvailable"`
	FDirect         Tristate    `json:"FDirect"`
	FMileageCost    *FlexString `json:"FMileageCost"`
	FRemainingSeats *int        `json:"FRemainingSeats"`
	FTaxes          *FlexString `json:"FTaxes"`
}

// UnmarshalJSON folds the flat Y/W/J/F fields into per-cabin records
func (a *Availability) UnmarshalJSON(data []byte) error {
	var w availabilityWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Availability{
		ID:    w.ID,
		Route: w.Route,
		Date:  w.Date,
		Cabins: map[Cabin]CabinAvailability{
			CabinEconomy:        {w.YAvailable, w.YDirect, w.YMileageCost, w.YRemainingSeats, w.YTaxes},
			CabinPremiumEconomy: {w.WAvailable, w.WDirect, w.WMileageCost, w.WRemainingSeats, w.WTaxes},
			CabinBusiness:       {w.JAvailable, w.JDirect, w.JMileageCost, w.JRemainingSeats, w.JTaxes},
			CabinFirst:          {w.FAvailable, w.FDirect, w.FMileageCost, w.FRemainingSeats, w.FTaxes},
		},
	}
	return nil
}

// MarshalJSON writes the flat upstream shape back out
func (a Availability) MarshalJSON() ([]byte, error) {
	y, w, j, f := a.Cabin(CabinEconomy), a.Cabin(CabinPremiumEconomy), a.Cabin(CabinBusiness), a.Cabin(CabinFirst)
	return json.Marshal(availabilityWire{
		ID: a.ID, Route: a.Route, Date: a.Date,
		YAvailable: y.Available, YDirect: y.Direct, YMileageCost: y.MileageCost, YRemainingSeats: y.RemainingSeats, YTaxes: y.Taxes,
		WAvailable: w.Available, WDirect: w.Direct, WMileageCost: w.MileageCost, WRemainingSeats: w.RemainingSeats, WTaxes: w.Taxes,
		JAvailable: j.Available, JDirect: j.Direct, JMileageCost: j.MileageCost, JRemainingSeats: j.RemainingSeats, JTaxes: j.Taxes,
		FAvailable: f.Available, FDirect: f.Direct, FMileageCost: f.MileageCost, FRemainingSeats: f.RemainingSeats, FTaxes: f.Taxes,
	})
}

// AvailabilityTrip is one flight segment behind an Availability
type AvailabilityTrip struct {
	ID                 string      `json:"ID"`
	RouteID            string      `json:"RouteID"`
	AvailabilityID     string      `json:"AvailabilityID"`
	FlightNumber       string      `json:"FlightNumber"`
	Distance           int         `json:"Distance"`
	FareClass          string      `json:"FareClass"`
	AircraftName       string      `json:"AircraftName"`
	AircraftCode       string      `json:"AircraftCode"`
	OriginAirport      string      `json:"OriginAirport"`
	DestinationAirport string      `json:"DestinationAirport"`
	DepartsAt          string      `json:"DepartsAt"`
	ArrivesAt          string      `json:"ArrivesAt"`
	Source             string      `json:"Source"`
	Order              int         `json:"Order"`
	MileageCost        *FlexString `json:"MileageCost,omitempty"`
	Taxes              *FlexString `json:"Taxes,omitempty"`
	RemainingSeats     *int        `json:"RemainingSeats,omitempty"`
}

// RouteInfo is an origin and destination with the programs flying it
type RouteInfo struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Sources     []string `json:"sources"`
	Distance    *int     `json:"distance,omitempty"`
}

// SearchParameters drive a cached search across programs.
// StartDate must not be after EndDate; the API, not this client, enforces it.
type SearchParameters struct {
	Origins      []string
	Destinations []string
	StartDate    string
	EndDate      string
	Cabin        Cabin
	Source       string
	Direct       *bool
	MinSeats     *int
	MaxMiles     *int
	Skip         *int
	Cursor       string
}

// BulkAvailabilityParameters drive a sweep of one program's inventory
type BulkAvailabilityParameters struct {
	Source       string
	Origins      []string
	Destinations []string
	StartDate    string
	EndDate      string
	Cabin        Cabin
	Direct       *bool
	Skip         *int
	Cursor       string
}

// LiveSearchParameters drive a live (uncached) search
type LiveSearchParameters struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Source      string `json:"source"`
	Cabin       Cabin  `json:"cabin,omitempty"`
}

// RouteFilter narrows GetRoutes
type RouteFilter struct {
	Origin      string
	Destination string
}

// SearchResponse is a normalized page of availabilities
type SearchResponse struct {
	Data    []Availability `json:"data"`
	Cursor  string         `json:"cursor,omitempty"`
	Count   int            `json:"count"`
	HasMore bool           `json:"hasMore"`
}

// TripResponse is the normalized trip list of one availability
type TripResponse struct {
	Data []AvailabilityTrip `json:"data"`
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
