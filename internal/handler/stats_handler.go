package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/respond"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

type StatsHandler struct {
	Stats *service.StatsService
	Log   zerolog.Logger
}

// Home returns the global counters shown on the landing page.
func (h *StatsHandler) Home(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Home(r.Context())
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
