// internal/controller/mailing_controller.go
package controller

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/respond"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

// MailingController holds the mailing actions that go beyond CRUD: sending,
// the attempt log and per-mailing statistics.
type MailingController struct {
	MailingService *service.MailingService
	Log            zerolog.Logger
}

// SendMailing dispatches a mailing right away. With ?async=true the dispatch
// is queued for the worker instead and the response is 202.
func (c *MailingController) SendMailing(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid mailing id")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if c.MailingService.Queue == nil {
			respond.Error(w, http.StatusServiceUnavailable, "queued dispatch is not configured")
			return
		}
		if err := c.MailingService.EnqueueMailing(r.Context(), p, id); err != nil {
			respond.Err(w, r, c.Log, err)
			return
		}
		respond.JSON(w, http.StatusAccepted, map[string]interface{}{
			"mailing_id": id,
			"queued":     true,
		})
		return
	}

	sent, err := c.MailingService.SendMailing(r.Context(), p, id)
	if err != nil {
		respond.Err(w, r, c.Log, err)
		return
	}
	if !sent {
		// The engine keeps the reason to itself; callers get one notice.
		respond.Error(w, http.StatusUnprocessableEntity, fmt.Sprintf("failed to send mailing %d", id))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"mailing_id": id,
		"sent":       true,
	})
}

func (c *MailingController) Statistics(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	stats, err := c.MailingService.Statistics(r.Context(), p)
	if err != nil {
		respond.Err(w, r, c.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"data": stats})
}

// ListAttempts returns the attempt log visible to the caller, newest first.
func (c *MailingController) ListAttempts(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	attempts, err := c.MailingService.Attempts(r.Context(), p)
	if err != nil {
		respond.Err(w, r, c.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"data": attempts})
}

func (c *MailingController) MailingAttempts(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid mailing id")
		return
	}
	attempts, err := c.MailingService.MailingAttempts(r.Context(), p, id)
	if err != nil {
		respond.Err(w, r, c.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"data": attempts})
}
