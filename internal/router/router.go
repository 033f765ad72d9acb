package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/parisxmas/OxiForms/internal/auth"
	"github.com/parisxmas/OxiForms/internal/handler"
	mw "github.com/parisxmas/OxiForms/internal/middleware"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	Forms       *handler.FormHandler
	Submissions *handler.SubmissionHandler
	Uploads     *handler.UploadHandler
	Webhooks    *handler.WebhookHandler
}

func New(tokens *auth.TokenIssuer, h Handlers, log logrus.FieldLogger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery(log))
	r.Use(chimw.RealIP)
	r.Use(mw.Logger(log))
	r.Use(mw.CORS)

	r.Get("/uploads/{formId}/{key}", h.Uploads.Serve)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Get("/public/forms/{shareId}", h.Forms.Public)
		r.Post("/forms/{formId}/submit", h.Submissions.Submit)
		r.Post("/forms/{formId}/uploads", h.Uploads.Upload)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Get("/auth/me", h.Auth.Me)
			r.Get("/dashboard", h.Forms.Dashboard)
			r.Get("/templates", h.Forms.Templates)

			// Forms
			r.Get("/forms", h.Forms.List)
			r.Post("/forms", h.Forms.Create)
			r.Get("/forms/{formId}", h.Forms.Get)
			r.Put("/forms/{formId}", h.Forms.Update)
			r.Patch("/forms/{formId}", h.Forms.Update)
			r.Delete("/forms/{formId}", h.Forms.Delete)

			// Submissions
			r.Get("/forms/{formId}/submissions", h.Submissions.List)
			r.Delete("/forms/{formId}/submissions", h.Submissions.BulkDelete)
			r.Get("/forms/{formId}/submissions/export", h.Submissions.Export)
			r.Get("/forms/{formId}/submissions/{subId}", h.Submissions.Get)
			r.Delete("/forms/{formId}/submissions/{subId}", h.Submissions.Delete)
			r.Get("/forms/{formId}/analytics", h.Submissions.Analytics)

			// Webhooks
			r.Get("/forms/{formId}/webhooks", h.Webhooks.List)
			r.Post("/forms/{formId}/webhooks", h.Webhooks.Create)
			r.Patch("/forms/{formId}/webhooks/{webhookId}", h.Webhooks.Update)
			r.Delete("/forms/{formId}/webhooks/{webhookId}", h.Webhooks.Delete)
		})
	})

	return r
}
