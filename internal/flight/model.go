package flight

// Destination is one airport row from the IATA/ICAO dataset.
type Destination struct {
	CountryCode string  `json:"country_code"`
	RegionName  string  `json:"region_name"`
	IATA        string  `json:"iata"`
	ICAO        string  `json:"icao"`
	Airport     string  `json:"airport"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

type PriceRequest struct {
	TripType     string `json:"trip_type"`
	DepartureID  string `json:"departure_id"`
	ArrivalID    string `json:"arrival_id"`
	OutboundDate string `json:"outbound_date"`
	ReturnDate   string `json:"return_date,omitempty"`
	Currency     string `json:"currency"`
	Adults       string `json:"adults,omitempty"`
	Children     string `json:"children,omitempty"`
	InfantsOnLap string `json:"infants_on_lap,omitempty"`
}

type SearchMetadata struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	GoogleFlightsURL string `json:"google_flights_url"`
}

type PriceInsights struct {
	LowestPrice       float64   `json:"lowest_price"`
	PriceLevel        string    `json:"price_level"`
	TypicalPriceRange []float64 `json:"typical_price_range"`
}

type FlightLeg struct {
	DepartureAirport AirportTime `json:"departure_airport"`
	ArrivalAirport   AirportTime `json:"arrival_airport"`
	Airline          string      `json:"airline"`
	FlightNumber     string      `json:"flight_number"`
	Duration         int         `json:"duration"`
}

type AirportTime struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Time string `json:"time"`
}

type FlightOption struct {
	Flights       []FlightLeg `json:"flights"`
	TotalDuration int         `json:"total_duration"`
	Price         float64     `json:"price"`
}

type PriceResponse struct {
	SearchMetadata SearchMetadata `json:"search_metadata"`
	PriceInsights  PriceInsights  `json:"price_insights"`
	BestFlights    []FlightOption `json:"best_flights"`
	OtherFlights   []FlightOption `json:"other_flights"`
}
