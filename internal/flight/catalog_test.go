package flight

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog()
	require.NoError(t, err)
	return catalog
}

func TestCatalog_Destinations(t *testing.T) {
	catalog := newTestCatalog(t)

	destinations := catalog.Destinations()
	require.Len(t, destinations, 20)
	require.Equal(t, Destination{
		CountryCode: "AU",
		RegionName:  "Melbourne",
		IATA:        "MEL",
		ICAO:        "YMML",
		Airport:     "Melbourne Airport",
		Latitude:    -37.6733,
		Longitude:   144.8433,
	}, destinations[0])
}

func TestCatalog_SearchByRegion(t *testing.T) {
	catalog := newTestCatalog(t)

	t.Run("case insensitive", func(t *testing.T) {
		matches := catalog.SearchByRegion("sydney")
		require.Len(t, matches, 1)
		require.Equal(t, "SYD", matches[0].IATA)
	})

	t.Run("substring match", func(t *testing.T) {
		matches := catalog.SearchByRegion("church")
		require.Len(t, matches, 1)
		require.Equal(t, "CHC", matches[0].IATA)
	})

	t.Run("no match returns empty slice", func(t *testing.T) {
		matches := catalog.SearchByRegion("atlantis")
		require.NotNil(t, matches)
		require.Empty(t, matches)
	})
}

func TestCatalog_Airlines(t *testing.T) {
	catalog := newTestCatalog(t)

	airlines := catalog.Airlines()
	require.Len(t, airlines, 15)
	require.Contains(t, airlines, "Qantas")
	require.Contains(t, airlines, "Jetstar")
}
