package flight

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSearchBaseURL = "https://serpapi.com/search"

// Client queries the external flight-search API. The gate authorizes the
// caller before any search reaches the upstream service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type searchErrorResponse struct {
	Error string `json:"error"`
}

func NewClient(apiKey string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing flight search api key")
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: defaultSearchBaseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

// Search fetches live prices for the requested route. Upstream failures
// surface verbatim so the handler can map them to a client error.
func (c *Client) Search(ctx context.Context, req PriceRequest) (PriceResponse, error) {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("api_key", c.apiKey)
	params.Set("departure_id", req.DepartureID)
	params.Set("arrival_id", req.ArrivalID)
	params.Set("outbound_date", req.OutboundDate)
	params.Set("currency", req.Currency)

	// Upstream encodes trip type as 1 (round) or 2 (one-way).
	if req.TripType == "oneway" {
		params.Set("type", "2")
	} else {
		params.Set("type", "1")
		params.Set("return_date", req.ReturnDate)
	}

	if req.Adults != "" {
		params.Set("adults", req.Adults)
	}
	if req.Children != "" {
		params.Set("children", req.Children)
	}
	if req.InfantsOnLap != "" {
		params.Set("infants_on_lap", req.InfantsOnLap)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return PriceResponse{}, fmt.Errorf("build flight search request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return PriceResponse{}, fmt.Errorf("flight search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return PriceResponse{}, fmt.Errorf("read flight search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsedErr searchErrorResponse
		if err := json.Unmarshal(body, &parsedErr); err == nil && parsedErr.Error != "" {
			return PriceResponse{}, fmt.Errorf("flight search failed: %s", parsedErr.Error)
		}
		return PriceResponse{}, fmt.Errorf("flight search failed with status %d", resp.StatusCode)
	}

	var parsed PriceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return PriceResponse{}, fmt.Errorf("decode flight search response: %w", err)
	}

	return parsed, nil
}
