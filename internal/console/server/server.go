package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/agentmarket-console/internal/console/handler"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"github.com/xela07ax/agentmarket-console/internal/infra/auth"
	"go.uber.org/zap"
)

// Handlers — обработчики бизнес-доменов консоли.
type Handlers struct {
	Auth       *handler.AuthHandler       // /auth/token, nil если auth выключен
	Operations *handler.OperationHandler  // /api/execute-operation и удобные маршруты
	Surfaces   *handler.SurfaceHandler    // /api/v1/surfaces, /api/v1/dashboard
	Agents     *handler.AgentHandler      // /api/v1/agents
	Onboarding *handler.OnboardingHandler // /api/v1/onboarding
	Journal    *handler.JournalHandler    // /api/v1/operations
}

type ConsoleServer struct {
	router  *chi.Mux
	logger  *zap.Logger
	cfg     *infra.Config
	metrics *infra.Metrics

	// nil, когда auth.enabled=false: маршруты записи открыты
	validator auth.TokenValidator
	handlers  Handlers
}

func NewConsoleServer(cfg *infra.Config, logger *zap.Logger, metrics *infra.Metrics, validator auth.TokenValidator, h Handlers) *ConsoleServer {
	if metrics == nil {
		metrics = infra.NewMetrics(nil)
	}
	s := &ConsoleServer{
		router:    chi.NewRouter(),
		logger:    logger.Named("console-api"),
		cfg:       cfg,
		metrics:   metrics,
		validator: validator,
		handlers:  h,
	}
	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. Публичные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.handlers.Auth != nil {
		r.Post("/auth/token", s.handlers.Auth.Login)
	}

	// Чтение: снимки поверхностей, журнал, онбординг
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/connection", s.handlers.Surfaces.Connection)
		r.Get("/dashboard", s.handlers.Surfaces.Dashboard)
		r.Get("/agents", s.handlers.Agents.List)
		r.Route("/surfaces", func(r chi.Router) {
			r.Get("/", s.handlers.Surfaces.List)
			r.Get("/{name}", s.handlers.Surfaces.Get)
			r.Post("/{name}/retry", s.handlers.Surfaces.Retry)
		})
		r.Get("/operations", s.handlers.Journal.List)
		r.Route("/onboarding/{clientID}", func(r chi.Router) {
			r.Get("/", s.handlers.Onboarding.Get)
			r.Put("/", s.handlers.Onboarding.Put)
		})
	})

	// --- 3. Запись в ноду: лимит и, если включено, RS256 токен ---
	r.Group(func(r chi.Router) {
		r.Use(RateLimit(s.cfg.Limits, s.metrics, s.logger))
		if s.validator != nil {
			r.Use(auth.RequireScope(s.validator, domain.ScopeOperationsWrite, s.logger))
		}

		r.Post("/api/execute-operation", s.handlers.Operations.Execute)
		r.Post("/api/agents", s.handlers.Operations.CreateAgent)
		r.Post("/api/transfers", s.handlers.Operations.Transfer)
		r.Post("/api/service-requests", s.handlers.Operations.ServiceRequest)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
