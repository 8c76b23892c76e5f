package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/respond"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

// AuthHandler serves registration, login and the caller's own profile.
type AuthHandler struct {
	Users *service.UserService
	Log   zerolog.Logger
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Users.Register(r.Context(), in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	res, err := h.Users.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	u, err := h.Users.Profile(r.Context(), p)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var in service.ProfileInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.Users.UpdateProfile(r.Context(), p, in)
	if err != nil {
		respond.Err(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// principal reads the caller set by auth.JWTAuth, answering 401 when absent.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}
