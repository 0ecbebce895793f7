package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"postservice/internal/handler"
	"postservice/internal/httputil"
	authmw "postservice/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	PostHandler       *handler.PostHandler
	EngagementHandler *handler.EngagementHandler
	UserHandler       *handler.UserHandler
	FeedHandler       *handler.FeedHandler
	MediaHandler      *handler.MediaHandler
	Accounts          authmw.AccountProvisioner
	JWTSecret         string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Every other route acts on behalf of an authenticated, provisioned user.
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
		r.Use(authmw.IdentityMiddleware(cfg.Accounts))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", cfg.PostHandler.List)
			r.Post("/", cfg.PostHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.PostHandler.Get)
				r.Put("/", cfg.PostHandler.Update)
				r.Patch("/", cfg.PostHandler.Update)
				r.Delete("/", cfg.PostHandler.Delete)

				r.Post("/upvote", cfg.EngagementHandler.ToggleUpvote)
				r.Get("/comments", cfg.EngagementHandler.ListComments)
				r.Post("/comments", cfg.EngagementHandler.AddComment)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.List)
			r.Get("/{id}", cfg.UserHandler.Get)
			r.Post("/{id}/follow_toggle", cfg.UserHandler.ToggleFollow)
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.Me)
			r.Delete("/", cfg.UserHandler.DeleteMe)
			r.Patch("/profile", cfg.UserHandler.UpdateProfile)
			r.Put("/picture", cfg.UserHandler.UploadPicture)
		})

		r.Get("/feed", cfg.FeedHandler.GetFeed)
		r.Post("/media/presign", cfg.MediaHandler.Presign)
	})

	return r
}
