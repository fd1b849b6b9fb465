// Package event holds the catalog of messages that cross the bus.
//
// Every payload declares its wire name explicitly through Name; routing keys
// and queue names are derived from that single declaration, so the name and
// the payload type cannot drift apart.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Version is carried as transport metadata with every published message.
const Version = "1.0"

type Event interface {
	Name() string
}

// ImageUploadedEvent is published once per successfully persisted image.
type ImageUploadedEvent struct {
	ImageID    uuid.UUID `json:"image_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	StoredPath string    `json:"stored_path"`
	FileName   string    `json:"file_name"`
	ByteSize   int64     `json:"byte_size"`
	MimeType   string    `json:"mime_type"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
}

func (ImageUploadedEvent) Name() string { return "ImageUploadedEvent" }

// ShareRequestCreatedEvent is published when a share request is created.
type ShareRequestCreatedEvent struct {
	ShareRequestID uuid.UUID `json:"share_request_id"`
	ImageID        uuid.UUID `json:"image_id"`
	ImageFileName  string    `json:"image_file_name"`
	RequesterID    uuid.UUID `json:"requester_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Message        *string   `json:"message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func (ShareRequestCreatedEvent) Name() string { return "ShareRequestCreatedEvent" }

// ShareRequestApprovedEvent is published on approval only. Rejection does not
// notify anyone; that asymmetry is part of the product behavior.
type ShareRequestApprovedEvent struct {
	ShareRequestID uuid.UUID `json:"share_request_id"`
	ImageID        uuid.UUID `json:"image_id"`
	ImageFileName  string    `json:"image_file_name"`
	RequesterID    uuid.UUID `json:"requester_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	Message        *string   `json:"message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func (ShareRequestApprovedEvent) Name() string { return "ShareRequestApprovedEvent" }
