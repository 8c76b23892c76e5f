package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/respond"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

type MessageHandler struct {
	Messages *service.MessageService
	Log      zerolog.Logger
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	messages, err := h.Messages.List(r.Context(), p)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}
	m, err := h.Messages.Get(r.Context(), p, id)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in service.MessageInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.Messages.Create(r.Context(), p, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var in service.MessageInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := h.Messages.Update(r.Context(), p, id, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

// Delete removes the message and, through the cascade, every mailing using it.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}
	if err := h.Messages.Delete(r.Context(), p, id); err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
