package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/respond"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

// MailingHandler covers mailing CRUD. Sending and reporting live in
// controller.MailingController.
type MailingHandler struct {
	Mailings *service.MailingService
	Log      zerolog.Logger
}

func (h *MailingHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	mailings, err := h.Mailings.List(r.Context(), p)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"data": mailings})
}

func (h *MailingHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid mailing id")
		return
	}
	m, err := h.Mailings.Get(r.Context(), p, id)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *MailingHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in service.MailingInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.Mailings.Create(r.Context(), p, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, m)
}

func (h *MailingHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid mailing id")
		return
	}
	var in service.MailingInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.Mailings.Update(r.Context(), p, id, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *MailingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid mailing id")
		return
	}
	if err := h.Mailings.Delete(r.Context(), p, id); err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
