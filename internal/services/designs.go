package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/threadforge/threadforge/internal/db"
	"github.com/threadforge/threadforge/internal/logging"
	"github.com/threadforge/threadforge/internal/models"
)

var (
	ErrNotDesignOwner         = errors.New("design belongs to a different user")
	ErrDesignNotEditable      = errors.New("only draft designs can be edited")
	ErrDesignNotSubmittable   = errors.New("only draft designs can be submitted")
	ErrDesignNotReviewable    = errors.New("only submitted designs can be reviewed")
	ErrInvalidReviewDecision  = errors.New("review decision must be approved or rejected")
	ErrDesignMissingPlacement = errors.New("design needs at least one placement")
)

type DesignService struct {
	designStore   *db.DesignStore
	productStore  *db.ProductStore
	notifications *NotificationService
	logger        *slog.Logger
}

func NewDesignService(designStore *db.DesignStore, productStore *db.ProductStore, notifications *NotificationService, logger *slog.Logger) *DesignService {
	return &DesignService{
		designStore:   designStore,
		productStore:  productStore,
		notifications: notifications,
		logger:        logger,
	}
}

type DesignInput struct {
	ProductID  uuid.UUID          `json:"product_id"`
	Name       string             `json:"name"`
	Preview    string             `json:"preview,omitempty"`
	Placements []models.Placement `json:"placements"`
}

// Create saves a new draft design against a customizable product.
func (s *DesignService) Create(ctx context.Context, userID uuid.UUID, input DesignInput) (*models.Design, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	design := &models.Design{
		UserID:     userID,
		ProductID:  input.ProductID,
		Name:       strings.TrimSpace(input.Name),
		Preview:    input.Preview,
		Placements: input.Placements,
		Status:     models.DesignDraft,
	}
	if err := s.designStore.Create(ctx, design); err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("design created", "design_id", design.ID, "user_id", userID)
	return design, nil
}

// Update replaces a draft design's content. Submitted and reviewed designs
// are frozen.
func (s *DesignService) Update(ctx context.Context, designID, userID uuid.UUID, input DesignInput) (*models.Design, error) {
	design, err := s.ownedDesign(ctx, designID, userID)
	if err != nil {
		return nil, err
	}
	if design.Status != models.DesignDraft {
		return nil, ErrDesignNotEditable
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	design.ProductID = input.ProductID
	design.Name = strings.TrimSpace(input.Name)
	design.Preview = input.Preview
	design.Placements = input.Placements
	if err := s.designStore.Update(ctx, design); err != nil {
		return nil, err
	}
	return design, nil
}

// Submit moves a draft into the review queue.
func (s *DesignService) Submit(ctx context.Context, designID, userID uuid.UUID) (*models.Design, error) {
	design, err := s.ownedDesign(ctx, designID, userID)
	if err != nil {
		return nil, err
	}
	if design.Status != models.DesignDraft {
		return nil, ErrDesignNotSubmittable
	}

	if err := s.designStore.SetStatus(ctx, designID, models.DesignDraft, models.DesignSubmitted, ""); err != nil {
		return nil, err
	}
	design.Status = models.DesignSubmitted

	logging.FromContext(ctx, s.logger).Info("design submitted", "design_id", designID)
	return design, nil
}

// Review records an admin decision on a submitted design and notifies the
// owner.
func (s *DesignService) Review(ctx context.Context, designID uuid.UUID, decision models.DesignStatus, note string) (*models.Design, error) {
	if decision != models.DesignApproved && decision != models.DesignRejected {
		return nil, ErrInvalidReviewDecision
	}

	design, err := s.designStore.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}
	if design.Status != models.DesignSubmitted {
		return nil, ErrDesignNotReviewable
	}

	if err := s.designStore.SetStatus(ctx, designID, models.DesignSubmitted, decision, note); err != nil {
		return nil, err
	}
	design.Status = decision
	design.ReviewNote = note

	logging.FromContext(ctx, s.logger).Info("design reviewed", "design_id", designID, "decision", decision)
	s.notifications.NotifyDesignReviewed(ctx, design)
	return design, nil
}

func (s *DesignService) Get(ctx context.Context, designID uuid.UUID, user *models.User) (*models.Design, error) {
	design, err := s.designStore.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && design.UserID != user.ID {
		return nil, ErrNotDesignOwner
	}
	return design, nil
}

func (s *DesignService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Design, error) {
	return s.designStore.ListByUser(ctx, userID)
}

// ListSubmitted returns the admin review queue.
func (s *DesignService) ListSubmitted(ctx context.Context) ([]*models.Design, error) {
	return s.designStore.ListByStatus(ctx, models.DesignSubmitted)
}

func (s *DesignService) Delete(ctx context.Context, designID, userID uuid.UUID) error {
	design, err := s.ownedDesign(ctx, designID, userID)
	if err != nil {
		return err
	}
	return s.designStore.Delete(ctx, design.ID)
}

func (s *DesignService) ownedDesign(ctx context.Context, designID, userID uuid.UUID) (*models.Design, error) {
	design, err := s.designStore.GetByID(ctx, designID)
	if err != nil {
		return nil, err
	}
	if design.UserID != userID {
		return nil, ErrNotDesignOwner
	}
	return design, nil
}

func (s *DesignService) validateInput(ctx context.Context, input DesignInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return validationErrorf("design name is required")
	}
	if len(input.Placements) == 0 {
		return ErrDesignMissingPlacement
	}

	product, err := s.productStore.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, db.ErrProductNotFound) {
			return &ProductUnavailableError{ProductID: input.ProductID, Reason: "not found"}
		}
		return fmt.Errorf("failed to load product: %w", err)
	}
	if !product.Customizable {
		return &ProductUnavailableError{ProductID: input.ProductID, Reason: "does not support custom designs"}
	}
	return nil
}
