package prediction

type PredictRequest struct {
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
	ArrivalDate   string `json:"arrival_date"`
	ArrivalTime   string `json:"arrival_time"`
	Airline       string `json:"airline"`
	DepartureCity string `json:"departure_city"`
	ArrivalCity   string `json:"arrival_city"`
	Stops         string `json:"stops"`
}

type PredictResponse struct {
	Predictions float64 `json:"predictions"`
}

type PriceBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type MonthlyAverage struct {
	Month        string  `json:"month"`
	AveragePrice float64 `json:"average_price"`
}

type WeekdayAverage struct {
	Day          string  `json:"day"`
	AveragePrice float64 `json:"average_price"`
}

type AirlineShare struct {
	Airline string `json:"airline"`
	Count   int    `json:"count"`
}

type ChartData struct {
	PriceDistribution []PriceBucket    `json:"price_distribution"`
	PriceTrend        []MonthlyAverage `json:"price_trend"`
	Seasonality       []WeekdayAverage `json:"seasonality"`
	AirlineShare      []AirlineShare   `json:"airline_share"`
}
