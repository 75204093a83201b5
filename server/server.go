package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/threadforge/threadforge/internal/config"
	"github.com/threadforge/threadforge/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.Authenticate)
	r.Use(h.MetricsContext)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")
	r.HandleFunc("/webhooks/stripe", h.StripeWebhook).Methods("POST").Name("webhooks.stripe")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", h.Register).Methods("POST").Name("auth.register")
	api.HandleFunc("/auth/login", h.Login).Methods("POST").Name("auth.login")
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET").Name("products.get")
	api.HandleFunc("/coupons", h.ListPublicCoupons).Methods("GET").Name("coupons.public")
	api.HandleFunc("/coupons/preview", h.PreviewCoupon).Methods("POST").Name("coupons.preview")

	// Authenticated customer routes
	user := api.NewRoute().Subrouter()
	user.Use(h.RequireUser)
	user.HandleFunc("/auth/me", h.Me).Methods("GET").Name("auth.me")
	user.HandleFunc("/orders", h.CreateOrder).Methods("POST").Name("orders.create")
	user.HandleFunc("/orders", h.ListMyOrders).Methods("GET").Name("orders.mine")
	user.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET").Name("orders.get")
	user.HandleFunc("/orders/{id}/cancel", h.CancelOrder).Methods("POST").Name("orders.cancel")
	user.HandleFunc("/orders/{id}/checkout", h.StartCheckout).Methods("POST").Name("orders.checkout")
	user.HandleFunc("/designs", h.CreateDesign).Methods("POST").Name("designs.create")
	user.HandleFunc("/designs", h.ListMyDesigns).Methods("GET").Name("designs.mine")
	user.HandleFunc("/designs/{id}", h.GetDesign).Methods("GET").Name("designs.get")
	user.HandleFunc("/designs/{id}", h.UpdateDesign).Methods("PUT").Name("designs.update")
	user.HandleFunc("/designs/{id}", h.DeleteDesign).Methods("DELETE").Name("designs.delete")
	user.HandleFunc("/designs/{id}/submit", h.SubmitDesign).Methods("POST").Name("designs.submit")
	user.HandleFunc("/notifications", h.ListNotifications).Methods("GET").Name("notifications.list")
	user.HandleFunc("/notifications/unread", h.UnreadNotificationCount).Methods("GET").Name("notifications.unread")
	user.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods("POST").Name("notifications.read")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/users", h.ListUsers).Methods("GET").Name("admin.users.list")
	admin.HandleFunc("/users/{id}", h.GetUser).Methods("GET").Name("admin.users.get")
	admin.HandleFunc("/products", h.ListAllProducts).Methods("GET").Name("admin.products.list")
	admin.HandleFunc("/products", h.CreateProduct).Methods("POST").Name("admin.products.create")
	admin.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT").Name("admin.products.update")
	admin.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE").Name("admin.products.delete")
	admin.HandleFunc("/products/{id}/stock", h.AdjustStock).Methods("POST").Name("admin.products.stock")
	admin.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("admin.orders.list")
	admin.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods("POST").Name("admin.orders.status")
	admin.HandleFunc("/coupons", h.ListCoupons).Methods("GET").Name("admin.coupons.list")
	admin.HandleFunc("/coupons", h.CreateCoupon).Methods("POST").Name("admin.coupons.create")
	admin.HandleFunc("/coupons/{code}", h.GetCoupon).Methods("GET").Name("admin.coupons.get")
	admin.HandleFunc("/coupons/{code}", h.UpdateCoupon).Methods("PATCH").Name("admin.coupons.update")
	admin.HandleFunc("/coupons/{code}", h.DeleteCoupon).Methods("DELETE").Name("admin.coupons.delete")
	admin.HandleFunc("/designs", h.ListSubmittedDesigns).Methods("GET").Name("admin.designs.queue")
	admin.HandleFunc("/designs/{id}/review", h.ReviewDesign).Methods("POST").Name("admin.designs.review")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return r
}
