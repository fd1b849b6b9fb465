package entity

import (
	"time"

	"github.com/google/uuid"
)

type Image struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`

	FileName   string `json:"file_name"`
	StoredPath string `json:"stored_path"`

	ThumbnailPath  *string `json:"thumbnail_path,omitempty"`
	ThumbnailReady bool    `json:"thumbnail_ready"`

	MimeType string `json:"mime_type"`
	ByteSize int64  `json:"byte_size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`

	CreatedAt time.Time `json:"created_at"`
}
