package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imchat/internal/config"
	"imchat/internal/domain"
	"imchat/internal/metrics"
	"imchat/internal/security"
	"imchat/internal/service"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "imchat/docs"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
// limiter may be nil, which disables send throttling.
func NewRouter(
	cfg *config.Config,
	repos domain.Repositories,
	tokenSvc *security.TokenService,
	passwordHasher *security.PasswordHasher,
	codec security.ContentCodec,
	limiter SendLimiter,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Services
	authSvc := service.NewAuthService(repos.Users, tokenSvc, passwordHasher, cfg.SkillRegisterKey)
	userSvc := service.NewUserService(repos.Users, tokenSvc)
	convSvc := service.NewConversationService(repos.Conversations, repos.Members, codec, cfg.PublicRoomName)
	msgSvc := service.NewMessageService(repos.Members, repos.Messages, codec)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handleHealth(cfg.AppName))

		r.Post("/skills/register", handleSkillRegister(authSvc))
		r.Post("/auth/register", handleRegisterClosed())
		r.Post("/auth/login", handleLogin(authSvc))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(userSvc))

			r.Get("/auth/me", handleMe())

			r.Post("/conversations/single", handlePrivateChatClosed())
			r.Get("/conversations/list", handleListConversations(convSvc))
			r.Post("/rooms/public/join", handleJoinPublicRoom(convSvc))

			r.With(SendRateLimit(limiter)).Post("/messages/send", handleSendMessage(msgSvc))
			r.Get("/messages/pull", handlePullMessages(msgSvc))
			r.Post("/messages/read", handleMarkRead(msgSvc))
		})
	})

	return r
}

type healthResponse struct {
	Service string `json:"service"`
}

// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  envelope{data=healthResponse}
// @Router       /health [get]
func handleHealth(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, healthResponse{Service: name})
	}
}
