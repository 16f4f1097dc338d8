package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"flightprice-api/internal/observability"
	"flightprice-api/internal/ratelimit"
)

// PruneHandler evicts idle rate-limit windows on demand, for deployments
// that prefer an external cron over the in-process sweeper. The endpoint
// stays hidden unless a cron secret is configured.
type PruneHandler struct {
	limiters   map[string]*ratelimit.Limiter
	logger     *observability.Logger
	cronSecret string
}

func NewPruneHandler(limiters map[string]*ratelimit.Limiter, logger *observability.Logger, cronSecret string) *PruneHandler {
	return &PruneHandler{
		limiters:   limiters,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *PruneHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	now := time.Now().UTC()
	pruned := make(map[string]int, len(h.limiters))
	remaining := make(map[string]int, len(h.limiters))
	for name, limiter := range h.limiters {
		pruned[name] = limiter.Prune(now)
		remaining[name] = limiter.Size()
	}

	h.logger.Info("rate_limit_prune_completed", map[string]any{
		"pruned":    pruned,
		"remaining": remaining,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"pruned":    pruned,
		"remaining": remaining,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
