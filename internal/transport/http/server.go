package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vladislavdragonenkov/food-oms/internal/service/saga"
)

// Server — HTTP-фасад сервиса заказов поверх chi.
type Server struct {
	server *http.Server
	router *chi.Mux
	saga   *saga.OrderSaga
	logger *log.Entry
}

// NewServer собирает роутер, CORS и HTTP-сервер из конфигурации.
func NewServer(orderSaga *saga.OrderSaga, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}

	router := newRouter()
	s := &Server{
		server: &http.Server{
			Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		saga:   orderSaga,
		logger: logger,
	}
	s.registerRoutes()

	return s
}

// Run запускает HTTP-сервер и блокируется до его остановки.
func (s *Server) Run() error {
	s.logger.WithField("addr", s.server.Addr).Info("http server listening")
	return s.server.ListenAndServe()
}

// Shutdown корректно останавливает сервер, дожидаясь активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler отдаёт роутер напрямую (для httptest).
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", s.createOrder)
			r.Get("/{orderID}", s.getOrder)
			r.Post("/{orderID}/cancel", s.cancelOrder)
			r.Patch("/{orderID}/status", s.updateOrderStatus)
		})
		r.Get("/customers/{customerID}/orders", s.listCustomerOrders)
		r.Get("/restaurants/{restaurantID}/orders", s.listRestaurantOrders)
	})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	c := cors.New(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("server.http.cors.allowed_origins"),
		AllowedMethods:   viper.GetStringSlice("server.http.cors.allowed_methods"),
		AllowedHeaders:   viper.GetStringSlice("server.http.cors.allowed_headers"),
		ExposedHeaders:   viper.GetStringSlice("server.http.cors.exposed_headers"),
		AllowCredentials: viper.GetBool("server.http.cors.allow_credentials"),
		MaxAge:           viper.GetInt("server.http.cors.max_age"),
	})
	router.Use(c.Handler)

	return router
}
