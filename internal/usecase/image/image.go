package image

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkosarev/picshare/internal/entity"
	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/internal/repo"
	"github.com/nkosarev/picshare/pkg/logger"
)

type UseCase struct {
	images repo.ImageMetadataRepo
	files  repo.FileStore
	bus    infrastructure.EventBus

	logger logger.Interface
}

func New(
	images repo.ImageMetadataRepo,
	files repo.FileStore,
	bus infrastructure.EventBus,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		images: images,
		files:  files,
		bus:    bus,
		logger: l,
	}
}

// CompleteUpload records a stored image and announces it on the bus. The
// publish is best-effort: the upload already succeeded, so a broker failure
// is logged, not returned — the image simply stays without a thumbnail until
// something republishes the event.
func (uc *UseCase) CompleteUpload(ctx context.Context, image *entity.Image) error {
	err := uc.images.Create(ctx, image)
	if err != nil {
		return fmt.Errorf("ImageUseCase - CompleteUpload - uc.images.Create: %w", err)
	}

	err = uc.bus.Publish(ctx, event.ImageUploadedEvent{
		ImageID:    image.ID,
		OwnerID:    image.OwnerID,
		StoredPath: image.StoredPath,
		FileName:   image.FileName,
		ByteSize:   image.ByteSize,
		MimeType:   image.MimeType,
		Width:      image.Width,
		Height:     image.Height,
	})
	if err != nil {
		uc.logger.Error(err, "ImageUseCase - CompleteUpload - uc.bus.Publish")
	}

	return nil
}

// DeleteImage removes the record first; share requests hold only the image
// id, so the cascade happens in the database without loading the workflow.
// Blob deletes are best-effort.
func (uc *UseCase) DeleteImage(ctx context.Context, id uuid.UUID) error {
	image, err := uc.images.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ImageUseCase - DeleteImage - uc.images.GetByID: %w", err)
	}

	err = uc.images.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("ImageUseCase - DeleteImage - uc.images.Delete: %w", err)
	}

	err = uc.files.Delete(ctx, image.StoredPath)
	if err != nil {
		uc.logger.Warn("failed to delete path=%s, error=%v", image.StoredPath, err)
	}

	if image.ThumbnailPath != nil {
		err = uc.files.Delete(ctx, *image.ThumbnailPath)
		if err != nil {
			uc.logger.Warn("failed to delete path=%s, error=%v", *image.ThumbnailPath, err)
		}
	}

	return nil
}
