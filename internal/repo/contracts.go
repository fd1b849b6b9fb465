package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkosarev/picshare/internal/entity"
)

type (
	// ImageMetadataRepo is the image half of the data store the event core
	// consumes. Each call is a self-contained read or write; no transaction
	// spans a message handler.
	ImageMetadataRepo interface {
		Create(ctx context.Context, image *entity.Image) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		Update(ctx context.Context, image *entity.Image) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	ShareRequestRepo interface {
		Create(ctx context.Context, req *entity.ShareRequest) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.ShareRequest, error)
		Update(ctx context.Context, req *entity.ShareRequest) error
		// ExistsActive reports whether a non-rejected request already exists
		// for the triple; the creating use case checks it before constructing.
		ExistsActive(ctx context.Context, requesterID, ownerID, imageID uuid.UUID) (bool, error)
	}

	// Transactor scopes a group of repo calls to one transaction.
	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}

	// FileStore holds image blobs. Paths are forward-slash keys relative to
	// the store root; thumbnail filenames are derived deterministically from
	// already-unique stored names, so no locking is needed.
	FileStore interface {
		Read(ctx context.Context, path string) ([]byte, error)
		Write(ctx context.Context, path string, data []byte, contentType string) error
		Delete(ctx context.Context, path string) error
	}
)
