package share

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkosarev/picshare/internal/entity"
	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/internal/repo"
	"github.com/nkosarev/picshare/pkg/clock"
	"github.com/nkosarev/picshare/pkg/logger"
	"github.com/nkosarev/picshare/pkg/types/errs"
)

type UseCase struct {
	requests   repo.ShareRequestRepo
	images     repo.ImageMetadataRepo
	transactor repo.Transactor
	bus        infrastructure.EventBus
	clock      clock.Clock

	expirationDays int

	logger logger.Interface
}

func New(
	requests repo.ShareRequestRepo,
	images repo.ImageMetadataRepo,
	transactor repo.Transactor,
	bus infrastructure.EventBus,
	c clock.Clock,
	expirationDays int,
	l logger.Interface,
) *UseCase {
	if expirationDays == 0 {
		expirationDays = entity.DefaultExpirationDays
	}

	return &UseCase{
		requests:       requests,
		images:         images,
		transactor:     transactor,
		bus:            bus,
		clock:          c,
		expirationDays: expirationDays,
		logger:         l,
	}
}

// Create builds a pending share request. expirationDays == 0 means the
// configured default; a negative value produces an already-expired request.
// The duplicate check and the insert run in one transaction.
func (uc *UseCase) Create(
	ctx context.Context,
	requesterID, ownerID, imageID uuid.UUID,
	message *string,
	expirationDays int,
) (*entity.ShareRequest, error) {
	if expirationDays == 0 {
		expirationDays = uc.expirationDays
	}

	image, err := uc.images.GetByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Create - uc.images.GetByID: %w", err)
	}

	req, err := entity.NewShareRequest(requesterID, ownerID, imageID, message, uc.clock.Now(), expirationDays)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Create: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := uc.requests.ExistsActive(ctx, requesterID, ownerID, imageID)
		if err != nil {
			return fmt.Errorf("ShareUseCase - Create - uc.requests.ExistsActive: %w", err)
		}
		if exists {
			return fmt.Errorf("ShareUseCase - Create: %w", errs.ErrDuplicateRequest)
		}

		if err := uc.requests.Create(ctx, req); err != nil {
			return fmt.Errorf("ShareUseCase - Create - uc.requests.Create: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Create - uc.transactor.WithinTransaction: %w", err)
	}

	uc.publish(ctx, event.ShareRequestCreatedEvent{
		ShareRequestID: req.ID,
		ImageID:        imageID,
		ImageFileName:  image.FileName,
		RequesterID:    requesterID,
		OwnerID:        ownerID,
		Message:        message,
		Timestamp:      req.CreatedAt,
	})

	return req, nil
}

func (uc *UseCase) Approve(ctx context.Context, id uuid.UUID, responseMessage *string) (*entity.ShareRequest, error) {
	req, err := uc.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Approve - uc.requests.GetByID: %w", err)
	}

	err = req.Approve(uc.clock.Now(), responseMessage)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Approve: %w", err)
	}

	err = uc.requests.Update(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Approve - uc.requests.Update: %w", err)
	}

	e := event.ShareRequestApprovedEvent{
		ShareRequestID: req.ID,
		ImageID:        req.ImageID,
		RequesterID:    req.RequesterID,
		OwnerID:        req.OwnerID,
		Message:        responseMessage,
		Timestamp:      *req.RespondedAt,
	}

	// File name enriches the notification; a missing image must not undo
	// an already-persisted approval.
	image, err := uc.images.GetByID(ctx, req.ImageID)
	if err != nil {
		uc.logger.Warn("share request %s approved for missing image %s: %v", req.ID, req.ImageID, err)
	} else {
		e.ImageFileName = image.FileName
	}

	uc.publish(ctx, e)

	return req, nil
}

// Reject publishes no event and does not consult the expiration window;
// both are inherited product behavior, not oversights to fix here.
func (uc *UseCase) Reject(ctx context.Context, id uuid.UUID, responseMessage *string) (*entity.ShareRequest, error) {
	req, err := uc.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Reject - uc.requests.GetByID: %w", err)
	}

	err = req.Reject(uc.clock.Now(), responseMessage)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Reject: %w", err)
	}

	err = uc.requests.Update(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Reject - uc.requests.Update: %w", err)
	}

	return req, nil
}

func (uc *UseCase) Cancel(ctx context.Context, id uuid.UUID) (*entity.ShareRequest, error) {
	req, err := uc.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Cancel - uc.requests.GetByID: %w", err)
	}

	err = req.Cancel(uc.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Cancel: %w", err)
	}

	err = uc.requests.Update(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ShareUseCase - Cancel - uc.requests.Update: %w", err)
	}

	return req, nil
}

// publish is fire-and-forget: the workflow outcome is already persisted and
// must not depend on the broker being reachable.
func (uc *UseCase) publish(ctx context.Context, e event.Event) {
	err := uc.bus.Publish(ctx, e)
	if err != nil {
		uc.logger.Error(err, "ShareUseCase - publish - uc.bus.Publish")
	}
}
