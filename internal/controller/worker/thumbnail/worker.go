// Package thumbnail consumes upload events and renders bounded previews.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/disintegration/imaging"

	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/internal/repo"
	"github.com/nkosarev/picshare/pkg/logger"
	"github.com/nkosarev/picshare/pkg/types/errs"
)

const (
	boxWidth  = 300
	boxHeight = 300

	jpegQuality = 85

	thumbPrefix = "thumb_"
)

type Worker struct {
	images repo.ImageMetadataRepo
	files  repo.FileStore
	bus    infrastructure.EventBus
	logger logger.Interface

	started atomic.Bool
}

func New(
	images repo.ImageMetadataRepo,
	files repo.FileStore,
	bus infrastructure.EventBus,
	l logger.Interface,
) *Worker {
	return &Worker{
		images: images,
		files:  files,
		bus:    bus,
		logger: l,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("ThumbnailWorker - Start - worker already started")
	}

	err := w.bus.Subscribe(ctx, event.ImageUploadedEvent{}.Name(), w.handle)
	if err != nil {
		return fmt.Errorf("ThumbnailWorker - Start - w.bus.Subscribe: %w", err)
	}

	return nil
}

// handle only returns an error for an undecodable payload, which the bus
// drops. Processing failures are swallowed by process: a lost thumbnail is
// recoverable (the full-size image stays viewable), a redelivery storm of a
// CPU-bound job is not.
func (w *Worker) handle(ctx context.Context, msg infrastructure.Message) error {
	var payload event.ImageUploadedEvent
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		return fmt.Errorf("ThumbnailWorker - handle - json.Unmarshal: %w", err)
	}

	w.process(ctx, payload)

	return nil
}

func (w *Worker) process(ctx context.Context, payload event.ImageUploadedEvent) {
	image, err := w.images.GetByID(ctx, payload.ImageID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			w.logger.Warn("thumbnail skipped, image record not found, id=%s", payload.ImageID)
		} else {
			w.logger.Error(err, "ThumbnailWorker - process - w.images.GetByID")
		}

		return
	}

	// Duplicate delivery or a concurrent worker already finished this one.
	if image.ThumbnailReady {
		return
	}

	data, err := w.files.Read(ctx, image.StoredPath)
	if err != nil {
		if errors.Is(err, errs.ErrFileNotFound) {
			w.logger.Warn("thumbnail skipped, source file missing, id=%s path=%s", image.ID, image.StoredPath)
		} else {
			w.logger.Error(err, "ThumbnailWorker - process - w.files.Read")
		}

		return
	}

	thumb, err := render(data, image.Width, image.Height)
	if err != nil {
		w.logger.Error(fmt.Errorf("ThumbnailWorker - process - render, id=%s: %w", image.ID, err))

		return
	}

	thumbPath := thumbnailPath(image.OwnerID.String(), image.FileName)

	err = w.files.Write(ctx, thumbPath, thumb, "image/jpeg")
	if err != nil {
		w.logger.Error(fmt.Errorf("ThumbnailWorker - process - w.files.Write, id=%s: %w", image.ID, err))

		return
	}

	image.ThumbnailPath = &thumbPath
	image.ThumbnailReady = true

	err = w.images.Update(ctx, image)
	if err != nil {
		w.logger.Error(fmt.Errorf("ThumbnailWorker - process - w.images.Update, id=%s: %w", image.ID, err))
	}
}

func render(data []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging.Decode: %w", err)
	}

	newW, newH := fitBox(width, height)

	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)

	var buf bytes.Buffer
	err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	if err != nil {
		return nil, fmt.Errorf("imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}

// fitBox scales (width, height) into the bounding box preserving aspect
// ratio: ratio = min(boxW/w, boxH/h), floored on both axes.
func fitBox(width, height int) (int, int) {
	ratio := min(
		float64(boxWidth)/float64(width),
		float64(boxHeight)/float64(height),
	)

	return int(float64(width) * ratio), int(float64(height) * ratio)
}

// thumbnailPath derives the deterministic per-owner thumbnail key. Stored
// file names are unique per owner, so two workers racing on the same event
// write the same bytes to the same key.
func thumbnailPath(ownerID, fileName string) string {
	return fmt.Sprintf("%s/thumbs/%s%s", ownerID, thumbPrefix, fileName)
}
