package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/controller"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Users    *service.UserService
	Clients  *service.ClientService
	Messages *service.MessageService
	Mailings *service.MailingService
	Stats    *service.StatsService
	Tokens   auth.TokenValidator
	Log      zerolog.Logger
}

// NewRouter builds the chi router. Everything under /api/v1 except
// registration and login requires a bearer token.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(d.Log))
	r.Use(RecoverMiddleware(d.Log))

	r.Get("/healthz", Healthz)
	r.Handle("/metrics", promhttp.Handler())

	authH := &AuthHandler{Users: d.Users, Log: d.Log}
	clientH := &ClientHandler{Clients: d.Clients, Log: d.Log}
	messageH := &MessageHandler{Messages: d.Messages, Log: d.Log}
	mailingH := &MailingHandler{Mailings: d.Mailings, Log: d.Log}
	statsH := &StatsHandler{Stats: d.Stats, Log: d.Log}
	mailingCtrl := &controller.MailingController{MailingService: d.Mailings, Log: d.Log}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.JWTAuth(d.Tokens))

			r.Get("/users/me", authH.Me)
			r.Put("/users/me", authH.UpdateMe)

			r.Get("/stats/home", statsH.Home)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", clientH.List)
				r.Post("/", clientH.Create)
				r.Get("/{id}", clientH.Get)
				r.Put("/{id}", clientH.Update)
				r.Delete("/{id}", clientH.Delete)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", messageH.List)
				r.Post("/", messageH.Create)
				r.Get("/{id}", messageH.Get)
				r.Put("/{id}", messageH.Update)
				r.Delete("/{id}", messageH.Delete)
			})

			r.Route("/mailings", func(r chi.Router) {
				r.Get("/", mailingH.List)
				r.Post("/", mailingH.Create)
				r.Get("/statistics", mailingCtrl.Statistics)
				r.Get("/{id}", mailingH.Get)
				r.Put("/{id}", mailingH.Update)
				r.Delete("/{id}", mailingH.Delete)
				r.Get("/{id}/attempts", mailingCtrl.MailingAttempts)
				r.Post("/{id}/send", mailingCtrl.SendMailing)
			})

			r.Get("/attempts", mailingCtrl.ListAttempts)
		})
	})

	return r
}
