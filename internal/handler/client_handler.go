package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/respond"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

type ClientHandler struct {
	Clients *service.ClientService
	Log     zerolog.Logger
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	clients, err := h.Clients.List(r.Context(), p)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{"data": clients})
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	c, err := h.Clients.Get(r.Context(), p, id)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in service.ClientInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.Clients.Create(r.Context(), p, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	var in service.ClientInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := h.Clients.Update(r.Context(), p, id, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := respond.URLID(r)
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid client id")
		return
	}
	if err := h.Clients.Delete(r.Context(), p, id); err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
