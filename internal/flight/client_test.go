package flight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key")
	require.NoError(t, err)
	client.baseURL = server.URL
	return client
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
}

func TestClient_Search(t *testing.T) {
	roundTrip := PriceRequest{
		TripType:     "round",
		DepartureID:  "SYD",
		ArrivalID:    "MEL",
		OutboundDate: "2026-09-10",
		ReturnDate:   "2026-09-17",
		Currency:     "AUD",
		Adults:       "2",
	}

	t.Run("round trip query", func(t *testing.T) {
		var query map[string]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = map[string]string{}
			for key := range r.URL.Query() {
				query[key] = r.URL.Query().Get(key)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"price_insights":{"lowest_price":189,"price_level":"low"}}`))
		})

		result, err := client.Search(context.Background(), roundTrip)
		require.NoError(t, err)
		require.Equal(t, float64(189), result.PriceInsights.LowestPrice)

		require.Equal(t, "google_flights", query["engine"])
		require.Equal(t, "test-key", query["api_key"])
		require.Equal(t, "1", query["type"])
		require.Equal(t, "SYD", query["departure_id"])
		require.Equal(t, "2026-09-17", query["return_date"])
		require.Equal(t, "2", query["adults"])
	})

	t.Run("one way omits return date", func(t *testing.T) {
		var query map[string][]string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.Query()
			_, _ = w.Write([]byte(`{}`))
		})

		oneWay := roundTrip
		oneWay.TripType = "oneway"
		oneWay.ReturnDate = ""
		_, err := client.Search(context.Background(), oneWay)
		require.NoError(t, err)

		require.Equal(t, "2", query["type"][0])
		require.NotContains(t, query, "return_date")
	})

	t.Run("upstream error surfaced", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid departure_id"}`))
		})

		_, err := client.Search(context.Background(), roundTrip)
		require.ErrorContains(t, err, "Invalid departure_id")
	})

	t.Run("opaque upstream failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream exploded"))
		})

		_, err := client.Search(context.Background(), roundTrip)
		require.ErrorContains(t, err, "status 502")
	})
}
