package flight

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

type Searcher interface {
	Search(ctx context.Context, req PriceRequest) (PriceResponse, error)
}

type Handler struct {
	catalog  *Catalog
	searcher Searcher
}

func NewHandler(catalog *Catalog, searcher Searcher) *Handler {
	return &Handler{catalog: catalog, searcher: searcher}
}

func (h *Handler) Destinations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Destinations())
}

func (h *Handler) SearchDestinations(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	writeJSON(w, http.StatusOK, h.catalog.SearchByRegion(query))
}

func (h *Handler) Airlines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Airlines())
}

func (h *Handler) Prices(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body PriceRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if message, ok := validatePriceRequest(body); !ok {
		writeError(w, http.StatusBadRequest, message)
		return
	}

	result, err := h.searcher.Search(r.Context(), body)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func validatePriceRequest(req PriceRequest) (string, bool) {
	if req.TripType != "round" && req.TripType != "oneway" {
		return "trip_type must be round or oneway", false
	}
	if req.DepartureID == "" || req.ArrivalID == "" {
		return "departure_id and arrival_id are required", false
	}
	if req.OutboundDate == "" {
		return "outbound_date is required", false
	}
	if req.TripType == "round" && req.ReturnDate == "" {
		return "return_date is required for round trips", false
	}
	switch req.Currency {
	case "USD", "AUD", "EUR":
	default:
		return "currency must be USD, AUD or EUR", false
	}

	return "", true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
