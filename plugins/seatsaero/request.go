package seatsaero

import (
	"net/url"
	"strconv"
	"strings"
)

// queryBuilder only writes parameters that are set
type queryBuilder struct {
	values url.Values
}

func newQuery() *queryBuilder {
	return &queryBuilder{values: url.Values{}}
}

func (q *queryBuilder) str(key, value string) *queryBuilder {
	if value != "" {
		q.values.Set(key, value)
	}
	return q
}

func (q *queryBuilder) list(key string, values []string) *queryBuilder {
	if len(values) > 0 {
		q.values.Set(key, strings.Join(values, ","))
	}
	return q
}

func (q *queryBuilder) boolPtr(key string, value *bool) *queryBuilder {
	if value != nil {
		q.values.Set(key, strconv.FormatBool(*value))
	}
	return q
}

func (q *queryBuilder) intPtr(key string, value *int) *queryBuilder {
	if value != nil {
		q.values.Set(key, itoa(*value))
	}
	return q
}

// Query serializes the set parameters; arrays are comma-joined
func (p SearchParameters) Query() url.Values {
	return newQuery().
		list("origins", p.Origins).
		list("destinations", p.Destinations).
		str("startDate", p.StartDate).
		str("endDate", p.EndDate).
		str("cabin", string(p.Cabin)).
		str("source", p.Source).
		boolPtr("direct", p.Direct).
		intPtr("minSeats", p.MinSeats).
		intPtr("maxMiles", p.MaxMiles).
		intPtr("skip", p.Skip).
		str("cursor", p.Cursor).
		values
}

// Query serializes the set parameters; source is always sent
func (p BulkAvailabilityParameters) Query() url.Values {
	q := newQuery()
	q.values.Set("source", p.Source)
	return q.
		list("origins", p.Origins).
		list("destinations", p.Destinations).
		str("startDate", p.StartDate).
		str("endDate", p.EndDate).
		str("cabin", string(p.Cabin)).
		boolPtr("direct", p.Direct).
		intPtr("skip", p.Skip).
		str("cursor", p.Cursor).
		values
}

// Query serializes the optional route filters
func (f RouteFilter) Query() url.Values {
	return newQuery().
		str("origin", f.Origin).
		str("destination", f.Destination).
		values
}
