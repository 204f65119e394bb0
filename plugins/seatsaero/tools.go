package seatsaero

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/genkit"
	"github.com/va6996/seatsaero-mcp/log"
	toolspkg "github.com/va6996/seatsaero-mcp/tools"
)

// Tool names as they appear in the catalog
const (
	SearchToolName         = "search_award_availability"
	BulkToolName           = "bulk_availability"
	FlightDetailsToolName  = "get_flight_details"
	RoutesToolName         = "get_routes"
	MileageProgramToolName = "list_mileage_programs"
)

// initTools registers all seats.aero tools
func (c *Client) initTools(gk *genkit.Genkit, registry *toolspkg.Registry) error {
	if registry == nil {
		return nil
	}
	if gk == nil {
		return fmt.Errorf("seats.aero tools need a genkit instance")
	}

	for _, register := range []func(*genkit.Genkit, *toolspkg.Registry) error{
		NewSearchTool(c).register,
		NewBulkTool(c).register,
		NewFlightDetailsTool(c).register,
		NewRoutesTool(c).register,
		NewMileageProgramsTool().register,
	} {
		if err := register(gk, registry); err != nil {
			return err
		}
	}
	return nil
}

// --- schema helpers ---

type schema = map[string]interface{}

func objectSchema(properties schema, required ...string) schema {
	s := schema{"type": "object", "properties": properties, "additionalProperties": false}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(description string) schema {
	return schema{"type": "string", "description": description}
}

func dateProp(description string) schema {
	return schema{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`, "description": description}
}

func airportListProp(description string, minItems int) schema {
	s := schema{"type": "array", "items": schema{"type": "string"}, "description": description}
	if minItems > 0 {
		s["minItems"] = minItems
	}
	return s
}

func cabinProp(description string) schema {
	codes := make([]interface{}, 0, len(Cabins))
	for _, c := range Cabins {
		codes = append(codes, string(c))
	}
	return schema{"type": "string", "enum": codes, "description": description}
}

func sourceProp(description string) schema {
	sources := make([]interface{}, 0, len(SupportedSources))
	for _, s := range SupportedSources {
		sources = append(sources, s)
	}
	return schema{
		"type":        "string",
		"enum":        sources,
		"description": fmt.Sprintf("%s. Options: %s", description, strings.Join(SupportedSources, ", ")),
	}
}

func intProp(description string) schema {
	return schema{"type": "integer", "minimum": 0, "description": description}
}

func boolProp(description string) schema {
	return schema{"type": "boolean", "description": description}
}

// renderAvailabilities builds the "Found N results" block shared by the
// search tools
func (c *Client) renderAvailabilities(header string, resp *SearchResponse) string {
	shown := resp.Data
	if len(shown) > c.ResultLimit {
		shown = shown[:c.ResultLimit]
	}
	blocks := make([]string, 0, len(shown))
	for _, a := range shown {
		blocks = append(blocks, c.formatter.FormatAvailability(a))
	}

	text := fmt.Sprintf("%s Showing first %d:\n\n%s", header, len(shown), strings.Join(blocks, resultSep))
	if resp.HasMore && resp.Cursor != "" {
		text += fmt.Sprintf("\n\nMore results available. Next cursor: %s", resp.Cursor)
	}
	return text
}

// --- Search Award Availability Tool ---

// SearchInput holds the arguments of search_award_availability
type SearchInput struct {
	Origins      []string `json:"origins" validate:"required,min=1,dive,required"`
	Destinations []string `json:"destinations" validate:"required,min=1,dive,required"`
	StartDate    string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string   `json:"endDate" validate:"required,datetime=2006-01-02"`
	Cabin        string   `json:"cabin,omitempty" validate:"omitempty,oneof=Y W J F"`
	Source       string   `json:"source,omitempty"`
	Direct       *bool    `json:"direct,omitempty"`
	MinSeats     *int     `json:"minSeats,omitempty" validate:"omitempty,gte=0"`
	MaxMiles     *int     `json:"maxMiles,omitempty" validate:"omitempty,gte=0"`
	Cursor       string   `json:"cursor,omitempty"`
	Skip         *int     `json:"skip,omitempty" validate:"omitempty,gte=0"`
}

// SearchTool runs a cached search across programs
type SearchTool struct {
	client *Client
}

// NewSearchTool creates the cached search tool
func NewSearchTool(client *Client) *SearchTool {
	return &SearchTool{client: client}
}

// Definition returns the catalog entry for the search tool
func (t *SearchTool) Definition() toolspkg.Definition {
	return toolspkg.Definition{
		Name:        SearchToolName,
		Description: "Search for award availability across multiple mileage programs. Best for specific route and date searches.",
		InputSchema: objectSchema(schema{
			"origins":      airportListProp(`Array of origin airport codes (e.g., ["SFO", "LAX"])`, 1),
			"destinations": airportListProp("Array of destination airport codes", 1),
			"startDate":    dateProp("Start date in YYYY-MM-DD format"),
			"endDate":      dateProp("End date in YYYY-MM-DD format"),
			"cabin":        cabinProp("Cabin class: Y=Economy, W=Premium Economy, J=Business, F=First"),
			"source":       sourceProp("Specific mileage program"),
			"direct":       boolProp("Only show direct flights"),
			"minSeats":     intProp("Minimum number of available seats"),
			"maxMiles":     intProp("Maximum miles cost"),
			"cursor":       stringProp("Pagination cursor from a previous search"),
			"skip":         intProp("Number of results to skip"),
		}, "origins", "destinations", "startDate", "endDate"),
	}
}

func (t *SearchTool) register(gk *genkit.Genkit, registry *toolspkg.Registry) error {
	def := t.Definition()
	return registry.Register(toolspkg.Define(gk, def.Name, def.Description, t.Execute), def)
}

// Execute runs one cached search and renders the results
func (t *SearchTool) Execute(ctx context.Context, input *SearchInput) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("seats.aero client not initialized")
	}
	if input == nil {
		return "", fmt.Errorf("input required")
	}
	log.Debugf(ctx, "SearchTool executing: %v → %v, %s..%s", input.Origins, input.Destinations, input.StartDate, input.EndDate)

	resp, err := t.client.CachedSearch(ctx, SearchParameters{
		Origins:      input.Origins,
		Destinations: input.Destinations,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Cabin:        Cabin(input.Cabin),
		Source:       input.Source,
		Direct:       input.Direct,
		MinSeats:     input.MinSeats,
		MaxMiles:     input.MaxMiles,
		Skip:         input.Skip,
		Cursor:       input.Cursor,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Data) == 0 {
		return "No availability found for the specified search criteria.", nil
	}
	log.Debugf(ctx, "SearchTool found %d results", resp.Count)
	return t.client.renderAvailabilities(fmt.Sprintf("Found %d results.", resp.Count), resp), nil
}

// --- Bulk Availability Tool ---

// BulkInput holds the arguments of bulk_availability. Only source is required.
type BulkInput struct {
	Source       string   `json:"source" validate:"required"`
	Origins      []string `json:"origins,omitempty" validate:"omitempty,dive,required"`
	Destinations []string `json:"destinations,omitempty" validate:"omitempty,dive,required"`
	StartDate    string   `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string   `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Cabin        string   `json:"cabin,omitempty" validate:"omitempty,oneof=Y W J F"`
	Direct       *bool    `json:"direct,omitempty"`
	Cursor       string   `json:"cursor,omitempty"`
	Skip         *int     `json:"skip,omitempty" validate:"omitempty,gte=0"`
}

// BulkTool sweeps a single program's availability
type BulkTool struct {
	client *Client
}

// NewBulkTool creates the bulk availability tool
func NewBulkTool(client *Client) *BulkTool {
	return &BulkTool{client: client}
}

// Definition returns the catalog entry for the bulk tool
func (t *BulkTool) Definition() toolspkg.Definition {
	return toolspkg.Definition{
		Name:        BulkToolName,
		Description: "Get bulk availability data for a specific mileage program. Best for broad searches across regions.",
		InputSchema: objectSchema(schema{
			"source":       sourceProp("Mileage program"),
			"origins":      airportListProp("Array of origin airport codes", 0),
			"destinations": airportListProp("Array of destination airport codes", 0),
			"startDate":    dateProp("Start date in YYYY-MM-DD format"),
			"endDate":      dateProp("End date in YYYY-MM-DD format"),
			"cabin":        cabinProp("Cabin class"),
			"direct":       boolProp("Only show direct flights"),
			"cursor":       stringProp("Pagination cursor from a previous request"),
			"skip":         intProp("Number of results to skip"),
		}, "source"),
	}
}

func (t *BulkTool) register(gk *genkit.Genkit, registry *toolspkg.Registry) error {
	def := t.Definition()
	return registry.Register(toolspkg.Define(gk, def.Name, def.Description, t.Execute), def)
}

// Execute fetches one page of bulk availability for input.Source
func (t *BulkTool) Execute(ctx context.Context, input *BulkInput) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("seats.aero client not initialized")
	}
	if input == nil {
		return "", fmt.Errorf("input required")
	}
	log.Debugf(ctx, "BulkTool executing for source %s", input.Source)

	resp, err := t.client.BulkAvailability(ctx, BulkAvailabilityParameters{
		Source:       input.Source,
		Origins:      input.Origins,
		Destinations: input.Destinations,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Cabin:        Cabin(input.Cabin),
		Direct:       input.Direct,
		Skip:         input.Skip,
		Cursor:       input.Cursor,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Data) == 0 {
		return fmt.Sprintf("No availability found for %s.", input.Source), nil
	}
	return t.client.renderAvailabilities(fmt.Sprintf("Found %d results for %s.", resp.Count, input.Source), resp), nil
}

// --- Flight Details Tool ---

// FlightDetailsInput names the availability result to expand
type FlightDetailsInput struct {
	AvailabilityID string `json:"availabilityId" validate:"required"`
}

// FlightDetailsTool lists the trips behind a search result
type FlightDetailsTool struct {
	client *Client
}

// NewFlightDetailsTool creates the trip lookup tool
func NewFlightDetailsTool(client *Client) *FlightDetailsTool {
	return &FlightDetailsTool{client: client}
}

// Definition returns the catalog entry for get_flight_details
func (t *FlightDetailsTool) Definition() toolspkg.Definition {
	return toolspkg.Definition{
		Name:        FlightDetailsToolName,
		Description: "Get detailed flight information for a specific availability result",
		InputSchema: objectSchema(schema{
			"availabilityId": stringProp("The availability ID from a search result"),
		}, "availabilityId"),
	}
}

func (t *FlightDetailsTool) register(gk *genkit.Genkit, registry *toolspkg.Registry) error {
	def := t.Definition()
	return registry.Register(toolspkg.Define(gk, def.Name, def.Description, t.Execute), def)
}

// Execute lists the trips behind input.AvailabilityID
func (t *FlightDetailsTool) Execute(ctx context.Context, input *FlightDetailsInput) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("seats.aero client not initialized")
	}
	if input == nil || input.AvailabilityID == "" {
		return "", fmt.Errorf("availabilityId is required")
	}

	resp, err := t.client.GetTrips(ctx, input.AvailabilityID)
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "No flight details found for this availability ID.", nil
	}

	blocks := make([]string, 0, len(resp.Data))
	for _, trip := range resp.Data {
		blocks = append(blocks, t.client.formatter.FormatTrip(trip))
	}
	return "Flight Details:\n\n" + strings.Join(blocks, resultSep), nil
}

// --- Routes Tool ---

// RoutesInput optionally narrows the route listing
type RoutesInput struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
}

// RoutesTool lists routes and the programs that fly them
type RoutesTool struct {
	client *Client
}

// NewRoutesTool creates the route listing tool
func NewRoutesTool(client *Client) *RoutesTool {
	return &RoutesTool{client: client}
}

// Definition returns the catalog entry for get_routes
func (t *RoutesTool) Definition() toolspkg.Definition {
	return toolspkg.Definition{
		Name:        RoutesToolName,
		Description: "Get available routes and mileage programs between airports",
		InputSchema: objectSchema(schema{
			"origin":      stringProp("Origin airport code"),
			"destination": stringProp("Destination airport code"),
		}),
	}
}

func (t *RoutesTool) register(gk *genkit.Genkit, registry *toolspkg.Registry) error {
	def := t.Definition()
	return registry.Register(toolspkg.Define(gk, def.Name, def.Description, t.Execute), def)
}

// Execute lists routes matching the optional origin and destination
func (t *RoutesTool) Execute(ctx context.Context, input *RoutesInput) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("seats.aero client not initialized")
	}
	if input == nil {
		input = &RoutesInput{}
	}

	routes, err := t.client.GetRoutes(ctx, RouteFilter{Origin: input.Origin, Destination: input.Destination})
	if err != nil {
		return "", err
	}
	if len(routes) == 0 {
		return "No routes found.", nil
	}

	lines := make([]string, 0, len(routes))
	for _, r := range routes {
		lines = append(lines, t.client.formatter.FormatRoute(r))
	}
	return "Available Routes:\n" + strings.Join(lines, "\n"), nil
}

// --- Mileage Programs Tool ---

// MileageProgramsInput takes no arguments
type MileageProgramsInput struct{}

// MileageProgramsTool lists the supported programs and cabin codes. It makes
// no API call.
type MileageProgramsTool struct{}

// NewMileageProgramsTool creates the static program listing tool
func NewMileageProgramsTool() *MileageProgramsTool {
	return &MileageProgramsTool{}
}

// Definition returns the catalog entry for list_mileage_programs
func (t *MileageProgramsTool) Definition() toolspkg.Definition {
	return toolspkg.Definition{
		Name:        MileageProgramToolName,
		Description: "List all supported mileage programs",
		InputSchema: objectSchema(schema{}),
	}
}

func (t *MileageProgramsTool) register(gk *genkit.Genkit, registry *toolspkg.Registry) error {
	def := t.Definition()
	return registry.Register(toolspkg.Define(gk, def.Name, def.Description, t.Execute), def)
}

// Execute renders the supported programs and cabin codes
func (t *MileageProgramsTool) Execute(ctx context.Context, _ *MileageProgramsInput) (string, error) {
	var b strings.Builder
	b.WriteString("Supported Mileage Programs:\n")
	for _, source := range SupportedSources {
		fmt.Fprintf(&b, "• %s\n", source)
	}
	b.WriteString("\nCabin Classes:\n")
	for i, cabin := range Cabins {
		fmt.Fprintf(&b, "• %s = %s", cabin, cabin.Name())
		if i < len(Cabins)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
