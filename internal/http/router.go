package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/walweb/camisolas/internal/auth"
	"github.com/walweb/camisolas/internal/http/api"
	"github.com/walweb/camisolas/internal/http/catalog"
	"github.com/walweb/camisolas/internal/http/export"
	"github.com/walweb/camisolas/internal/http/inventory"
	"github.com/walweb/camisolas/internal/http/matching"
	"github.com/walweb/camisolas/internal/http/order"
)

func New(
	tokens *auth.Tokens,
	allowedOrigins []string,
	catalogV1 *catalog.Handler,
	inventoryV1 *inventory.Handler,
	ordersV1 *order.Handler,
	exportV1 *export.Handler,
	aliasesV1 *matching.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(tokens))

		r.Route("/catalog", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			catalogV1.Routes(r)
		})

		r.Route("/balances", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			inventoryV1.BalanceRoutes(r)
		})

		r.Route("/movements", inventoryV1.MovementRoutes)

		r.Route("/admin", inventoryV1.AdminRoutes)

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			ordersV1.Routes(r)
		})

		r.Route("/aliases", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			aliasesV1.Routes(r)
		})

		r.Route("/export", exportV1.Routes)
	})

	return router
}

// Authenticate resolves the bearer token into an actor on the request context.
// Requests without a token continue as an anonymous viewer; a bad token is rejected.
func Authenticate(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				api.JSON(w, http.StatusUnauthorized, api.Envelope{Error: "authorization header must be a bearer token"})
				return
			}

			actor, err := tokens.Verify(strings.TrimSpace(raw))
			if err != nil {
				api.JSON(w, http.StatusUnauthorized, api.Envelope{Error: err.Error()})
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
		})
	}
}
