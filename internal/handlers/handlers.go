package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/threadforge/threadforge/internal/auth"
	"github.com/threadforge/threadforge/internal/cache"
	"github.com/threadforge/threadforge/internal/config"
	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/services"
	"github.com/threadforge/threadforge/internal/stripe"
)

const (
	maxWebhookBodyBytes = 1 << 20 // 1 MB
	maxJSONBodyBytes    = 1 << 20
)

// Handlers provides HTTP request handlers for the ThreadForge API.
type Handlers struct {
	config              *config.Config
	db                  *pgxpool.Pool
	productStore        *db.ProductStore
	userStore           *db.UserStore
	cacheProvider       cache.Provider
	authService         *services.AuthService
	orderService        *services.OrderService
	couponService       *services.CouponService
	designService       *services.DesignService
	notificationService *services.NotificationService
	logger              *slog.Logger
}

type Dependencies struct {
	Config              *config.Config
	DB                  *pgxpool.Pool
	ProductStore        *db.ProductStore
	UserStore           *db.UserStore
	CacheProvider       cache.Provider
	AuthService         *services.AuthService
	OrderService        *services.OrderService
	CouponService       *services.CouponService
	DesignService       *services.DesignService
	NotificationService *services.NotificationService
	Logger              *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.ProductStore == nil {
		return nil, fmt.Errorf("handlers dependencies: productStore is required")
	}
	if deps.UserStore == nil {
		return nil, fmt.Errorf("handlers dependencies: userStore is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: authService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.CouponService == nil {
		return nil, fmt.Errorf("handlers dependencies: couponService is required")
	}
	if deps.DesignService == nil {
		return nil, fmt.Errorf("handlers dependencies: designService is required")
	}
	if deps.NotificationService == nil {
		return nil, fmt.Errorf("handlers dependencies: notificationService is required")
	}

	return &Handlers{
		config:              deps.Config,
		db:                  deps.DB,
		productStore:        deps.ProductStore,
		userStore:           deps.UserStore,
		cacheProvider:       deps.CacheProvider,
		authService:         deps.AuthService,
		orderService:        deps.OrderService,
		couponService:       deps.CouponService,
		designService:       deps.DesignService,
		notificationService: deps.NotificationService,
		logger:              logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps known domain errors to HTTP statuses; anything
// unrecognized is a 500 with a generic body so internals never leak.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var couponErr *services.CouponRejectedError
	var productErr *services.ProductUnavailableError
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		status, message = http.StatusBadRequest, validationErr.Message
	case errors.As(err, &couponErr):
		status, message = http.StatusUnprocessableEntity, couponErr.Message
	case errors.As(err, &productErr):
		status, message = http.StatusUnprocessableEntity, productErr.Error()
	case errors.Is(err, db.ErrOrderNotFound),
		errors.Is(err, db.ErrProductNotFound),
		errors.Is(err, db.ErrCouponNotFound),
		errors.Is(err, db.ErrDesignNotFound),
		errors.Is(err, db.ErrNotificationNotFound),
		errors.Is(err, db.ErrUserNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, db.ErrInvalidStatusTransition),
		errors.Is(err, db.ErrOrderAlreadyPaid),
		errors.Is(err, stripe.ErrNothingToCharge),
		errors.Is(err, db.ErrInsufficientStock),
		errors.Is(err, db.ErrCouponLimitReached),
		errors.Is(err, db.ErrCouponUserLimit),
		errors.Is(err, services.ErrDesignNotEditable),
		errors.Is(err, services.ErrDesignNotSubmittable),
		errors.Is(err, services.ErrDesignNotReviewable):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, db.ErrEmailTaken),
		errors.Is(err, db.ErrCouponExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrNotOrderOwner),
		errors.Is(err, services.ErrNotDesignOwner):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrEmailRequired),
		errors.Is(err, services.ErrInvalidCouponType),
		errors.Is(err, services.ErrInvalidReviewDecision),
		errors.Is(err, services.ErrDesignMissingPlacement),
		errors.Is(err, auth.ErrPasswordTooShort):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrPaymentsDisabled):
		status, message = http.StatusNotImplemented, err.Error()
	}

	if status == http.StatusInternalServerError {
		h.loggerFromContext(r.Context()).Error("request failed", "error", err, "path", r.URL.Path)
	}
	h.respondJSON(w, r, status, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *Handlers) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
