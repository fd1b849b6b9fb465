package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkosarev/picshare/internal/entity"
)

type (
	// ShareUseCase drives the share-request workflow. Domain failures
	// (errs.ErrInvalidRequest, ErrInvalidState, ErrExpired,
	// ErrDuplicateRequest) surface synchronously to the caller.
	ShareUseCase interface {
		Create(
			ctx context.Context,
			requesterID, ownerID, imageID uuid.UUID,
			message *string,
			expirationDays int,
		) (*entity.ShareRequest, error)
		Approve(ctx context.Context, id uuid.UUID, responseMessage *string) (*entity.ShareRequest, error)
		Reject(ctx context.Context, id uuid.UUID, responseMessage *string) (*entity.ShareRequest, error)
		Cancel(ctx context.Context, id uuid.UUID) (*entity.ShareRequest, error)
	}

	// ImageUseCase is the seam the upload handler calls after the bytes are
	// stored: it persists the record and announces the upload on the bus.
	ImageUseCase interface {
		CompleteUpload(ctx context.Context, image *entity.Image) error
		DeleteImage(ctx context.Context, id uuid.UUID) error
	}
)
