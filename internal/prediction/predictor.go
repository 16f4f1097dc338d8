package prediction

import (
	"embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed data/model.json data/fares_sample.csv
var dataFiles embed.FS

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type coefficients struct {
	BasePrice              float64            `json:"base_price"`
	DurationRatePerMinute  float64            `json:"duration_rate_per_minute"`
	LeadTimeDiscountPerDay float64            `json:"lead_time_discount_per_day"`
	MaxLeadTimeDays        int                `json:"max_lead_time_days"`
	StopPenalties          map[string]float64 `json:"stop_penalties"`
	AirlineFactors         map[string]float64 `json:"airline_factors"`
	MonthFactors           []float64          `json:"month_factors"`
	WeekdayFactors         []float64          `json:"weekday_factors"`
}

type fareRow struct {
	airline     string
	month       int
	weekday     string
	stops       string
	durationMin int
	price       float64
}

// Predictor scores fares with a linear model whose coefficients ship as an
// embedded artifact, and aggregates the embedded sample dataset for charts.
type Predictor struct {
	coeffs coefficients
	fares  []fareRow
}

func NewPredictor() (*Predictor, error) {
	raw, err := dataFiles.ReadFile("data/model.json")
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var coeffs coefficients
	if err := json.Unmarshal(raw, &coeffs); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(coeffs.MonthFactors) != 12 || len(coeffs.WeekdayFactors) != 7 {
		return nil, fmt.Errorf("model artifact: expected 12 month and 7 weekday factors")
	}

	fares, err := loadFares()
	if err != nil {
		return nil, err
	}

	return &Predictor{coeffs: coeffs, fares: fares}, nil
}

// Predict scores a fare from engineered features: flight duration, booking
// lead time, stop count, and airline/month/weekday factors.
func (p *Predictor) Predict(req PredictRequest, now time.Time) (float64, error) {
	departure, err := parseDateTime(req.DepartureDate, req.DepartureTime)
	if err != nil {
		return 0, fmt.Errorf("invalid departure: %w", err)
	}
	arrival, err := parseDateTime(req.ArrivalDate, req.ArrivalTime)
	if err != nil {
		return 0, fmt.Errorf("invalid arrival: %w", err)
	}
	if !arrival.After(departure) {
		return 0, fmt.Errorf("arrival must be after departure")
	}

	stops := req.Stops
	if stops == "" {
		stops = "direct"
	}
	stopPenalty, ok := p.coeffs.StopPenalties[stops]
	if !ok {
		return 0, fmt.Errorf("stops must be direct, 1 or 2")
	}

	durationMin := arrival.Sub(departure).Minutes()
	price := p.coeffs.BasePrice + p.coeffs.DurationRatePerMinute*durationMin + stopPenalty

	airlineFactor := 1.0
	if factor, ok := p.coeffs.AirlineFactors[req.Airline]; ok {
		airlineFactor = factor
	}
	price *= airlineFactor
	price *= p.coeffs.MonthFactors[int(departure.Month())-1]
	price *= p.coeffs.WeekdayFactors[int(departure.Weekday())]

	leadDays := departure.Sub(now).Hours() / 24
	if leadDays < 0 {
		leadDays = 0
	}
	if leadDays > float64(p.coeffs.MaxLeadTimeDays) {
		leadDays = float64(p.coeffs.MaxLeadTimeDays)
	}
	price -= p.coeffs.LeadTimeDiscountPerDay * leadDays

	if price < 0 {
		price = 0
	}

	return math.Round(price*100) / 100, nil
}

// ChartData aggregates the sample dataset: price histogram, monthly trend,
// weekday seasonality, and carrier share.
func (p *Predictor) ChartData() ChartData {
	return ChartData{
		PriceDistribution: p.priceDistribution(),
		PriceTrend:        p.priceTrend(),
		Seasonality:       p.seasonality(),
		AirlineShare:      p.airlineShare(),
	}
}

func (p *Predictor) priceDistribution() []PriceBucket {
	const bucketSize = 200.0

	counts := make(map[int]int)
	maxBucket := 0
	for _, fare := range p.fares {
		bucket := int(fare.price / bucketSize)
		counts[bucket]++
		if bucket > maxBucket {
			maxBucket = bucket
		}
	}

	buckets := make([]PriceBucket, 0, maxBucket+1)
	for b := 0; b <= maxBucket; b++ {
		low := int(bucketSize) * b
		high := low + int(bucketSize)
		buckets = append(buckets, PriceBucket{
			Range: fmt.Sprintf("%d-%d", low, high),
			Count: counts[b],
		})
	}

	return buckets
}

func (p *Predictor) priceTrend() []MonthlyAverage {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, fare := range p.fares {
		sums[fare.month] += fare.price
		counts[fare.month]++
	}

	trend := make([]MonthlyAverage, 0, 12)
	for month := 1; month <= 12; month++ {
		if counts[month] == 0 {
			continue
		}
		trend = append(trend, MonthlyAverage{
			Month:        time.Month(month).String(),
			AveragePrice: round2(sums[month] / float64(counts[month])),
		})
	}

	return trend
}

func (p *Predictor) seasonality() []WeekdayAverage {
	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, fare := range p.fares {
		sums[fare.weekday] += fare.price
		counts[fare.weekday]++
	}

	season := make([]WeekdayAverage, 0, len(weekdays))
	for _, day := range weekdays {
		if counts[day] == 0 {
			continue
		}
		season = append(season, WeekdayAverage{
			Day:          day,
			AveragePrice: round2(sums[day] / float64(counts[day])),
		})
	}

	return season
}

func (p *Predictor) airlineShare() []AirlineShare {
	counts := make(map[string]int)
	for _, fare := range p.fares {
		counts[fare.airline]++
	}

	share := make([]AirlineShare, 0, len(counts))
	for airline, count := range counts {
		share = append(share, AirlineShare{Airline: airline, Count: count})
	}
	sort.Slice(share, func(i, j int) bool {
		if share[i].Count != share[j].Count {
			return share[i].Count > share[j].Count
		}
		return share[i].Airline < share[j].Airline
	})

	return share
}

func parseDateTime(date, clock string) (time.Time, error) {
	return time.Parse(dateLayout+" "+timeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func loadFares() ([]fareRow, error) {
	file, err := dataFiles.Open("data/fares_sample.csv")
	if err != nil {
		return nil, fmt.Errorf("open sample fares: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read sample fares: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("sample fares: no data rows")
	}

	fares := make([]fareRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 6 {
			return nil, fmt.Errorf("sample fares row %d: expected 6 columns, got %d", i+2, len(record))
		}

		month, err := strconv.Atoi(record[1])
		if err != nil || month < 1 || month > 12 {
			return nil, fmt.Errorf("sample fares row %d: invalid month %q", i+2, record[1])
		}
		durationMin, err := strconv.Atoi(record[4])
		if err != nil {
			return nil, fmt.Errorf("sample fares row %d: invalid duration %q", i+2, record[4])
		}
		price, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return nil, fmt.Errorf("sample fares row %d: invalid price %q", i+2, record[5])
		}

		fares = append(fares, fareRow{
			airline:     record[0],
			month:       month,
			weekday:     record[2],
			stops:       record[3],
			durationMin: durationMin,
			price:       price,
		})
	}

	return fares, nil
}
