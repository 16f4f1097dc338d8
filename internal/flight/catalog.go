package flight

import (
	"embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

//go:embed data/iata_icao.csv data/airlines.csv
var dataFiles embed.FS

// Catalog serves the static airport and carrier datasets shipped with the
// binary. Parsed once at startup, read-only afterwards.
type Catalog struct {
	destinations []Destination
	airlines     []string
}

func NewCatalog() (*Catalog, error) {
	destinations, err := loadDestinations()
	if err != nil {
		return nil, err
	}

	airlines, err := loadAirlines()
	if err != nil {
		return nil, err
	}

	return &Catalog{destinations: destinations, airlines: airlines}, nil
}

func (c *Catalog) Destinations() []Destination {
	return c.destinations
}

// SearchByRegion matches destinations whose region name contains the query,
// case-insensitively.
func (c *Catalog) SearchByRegion(query string) []Destination {
	query = strings.ToLower(strings.TrimSpace(query))

	matches := make([]Destination, 0)
	for _, d := range c.destinations {
		if strings.Contains(strings.ToLower(d.RegionName), query) {
			matches = append(matches, d)
		}
	}

	return matches
}

func (c *Catalog) Airlines() []string {
	return c.airlines
}

func loadDestinations() ([]Destination, error) {
	records, err := readCSV("data/iata_icao.csv")
	if err != nil {
		return nil, err
	}

	destinations := make([]Destination, 0, len(records))
	for i, record := range records {
		if len(record) != 7 {
			return nil, fmt.Errorf("airport row %d: expected 7 columns, got %d", i+2, len(record))
		}

		latitude, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return nil, fmt.Errorf("airport row %d: parse latitude: %w", i+2, err)
		}
		longitude, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return nil, fmt.Errorf("airport row %d: parse longitude: %w", i+2, err)
		}

		destinations = append(destinations, Destination{
			CountryCode: record[0],
			RegionName:  record[1],
			IATA:        record[2],
			ICAO:        record[3],
			Airport:     record[4],
			Latitude:    latitude,
			Longitude:   longitude,
		})
	}

	return destinations, nil
}

func loadAirlines() ([]string, error) {
	records, err := readCSV("data/airlines.csv")
	if err != nil {
		return nil, err
	}

	airlines := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		airlines = append(airlines, strings.TrimSpace(record[0]))
	}

	return airlines, nil
}

// readCSV returns all rows after the header.
func readCSV(name string) ([][]string, error) {
	file, err := dataFiles.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s: no data rows", name)
	}

	return records[1:], nil
}
