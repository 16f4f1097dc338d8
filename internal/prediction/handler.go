package prediction

import (
	"encoding/json"
	"net/http"
	"time"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	predictor *Predictor
}

func NewHandler(predictor *Predictor) *Handler {
	return &Handler{predictor: predictor}
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body PredictRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	price, err := h.predictor.Predict(body, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, PredictResponse{Predictions: price})
}

func (h *Handler) ChartData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.predictor.ChartData())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
