package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adminpanel/adminpanel/internal/auth"
	"github.com/adminpanel/adminpanel/internal/chat"
	"github.com/adminpanel/adminpanel/internal/gate"
	"github.com/adminpanel/adminpanel/internal/observability"
	"github.com/adminpanel/adminpanel/internal/platform/httpx"
	"github.com/adminpanel/adminpanel/internal/posts"
	"github.com/adminpanel/adminpanel/internal/rbac"
	"github.com/adminpanel/adminpanel/internal/shared"
	"github.com/adminpanel/adminpanel/internal/token"
	"github.com/adminpanel/adminpanel/internal/training"
	"github.com/adminpanel/adminpanel/internal/users"
	"github.com/adminpanel/adminpanel/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Gate           *gate.Gate
	Bearer         token.Middleware
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	PostsHandler    *posts.Handler
	TrainingHandler *training.Handler
	ChatHandler     *chat.Handler
	RolesHandler    *rbac.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with admin panel defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
		SkipCSRF: func(req *http.Request) bool {
			return params.Gate != nil && params.Gate.Policy != nil && params.Gate.Policy.IsAPI(req.URL.Path)
		},
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(apiCORS(params))
	if params.Gate != nil {
		r.Use(params.Gate.Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(api chi.Router) {
		api.Route("/guest", params.UsersHandler.MountGuestRoutes)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(params.Bearer.Require)
			admin.Route("/users", params.UsersHandler.MountRoutes)
			admin.Route("/profile", params.UsersHandler.MountProfileRoutes)
			admin.Route("/dashboard", params.PostsHandler.MountRoutes)
			admin.Route("/train-model", params.TrainingHandler.MountRoutes)
			admin.Route("/chat", params.ChatHandler.MountRoutes)
			admin.Route("/roles", params.RolesHandler.MountRoutes)
			if params.JobHandler != nil {
				admin.With(params.RBACMiddleware.Require(shared.PermGetRole)).Route("/jobs", params.JobHandler.MountRoutes)
			}
		})

		api.Route("/user", func(user chi.Router) {
			user.Use(params.Bearer.Require)
			user.Route("/profile", params.UsersHandler.MountProfileRoutes)
			user.Route("/dashboard", params.PostsHandler.MountRoutes)
		})
	})

	// GraphQL trees stay under the gate; no executor is mounted.
	r.Handle("/graphql/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotImplemented, http.StatusText(http.StatusNotImplemented))
	}))

	return r
}

// apiCORS applies CORS headers to API and GraphQL paths only. It runs ahead
// of the gate so preflight requests are answered without credentials.
func apiCORS(params RouterParams) func(http.Handler) http.Handler {
	origin := ""
	if params.Config != nil {
		origin = params.Config.CORSAllowedOrigin
	}
	handler := cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", shared.CSRFHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	isAPI := func(r *http.Request) bool {
		if params.Gate != nil && params.Gate.Policy != nil {
			return params.Gate.Policy.IsAPI(r.URL.Path)
		}
		return gate.DefaultPolicy().IsAPI(r.URL.Path)
	}
	return func(next http.Handler) http.Handler {
		withCORS := handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isAPI(r) {
				withCORS.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
