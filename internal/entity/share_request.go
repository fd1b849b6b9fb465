package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkosarev/picshare/pkg/types/errs"
)

const DefaultExpirationDays = 7

// ShareRequest drives the peer-to-peer sharing workflow. It holds only the
// image id, never the image itself, so image deletion can cascade without
// loading the request.
type ShareRequest struct {
	ID          uuid.UUID `json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ImageID     uuid.UUID `json:"image_id"`

	RequestMessage  *string `json:"request_message,omitempty"`
	ResponseMessage *string `json:"response_message,omitempty"`

	Status ShareStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// NewShareRequest validates requester != owner once, at construction; the
// transition methods never re-check it. A non-positive expirationDays is
// taken literally and yields an already-expired request.
func NewShareRequest(
	requesterID, ownerID, imageID uuid.UUID,
	message *string,
	now time.Time,
	expirationDays int,
) (*ShareRequest, error) {
	if requesterID == ownerID {
		return nil, fmt.Errorf("entity - NewShareRequest - requester is the owner: %w", errs.ErrInvalidRequest)
	}

	return &ShareRequest{
		ID:             uuid.New(),
		RequesterID:    requesterID,
		OwnerID:        ownerID,
		ImageID:        imageID,
		RequestMessage: message,
		Status:         SharePending,
		CreatedAt:      now,
		ExpiresAt:      now.AddDate(0, 0, expirationDays),
	}, nil
}

func (r *ShareRequest) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// CanBeProcessed reports whether the request is still actionable:
// pending and not yet past its expiration window.
func (r *ShareRequest) CanBeProcessed(now time.Time) bool {
	return r.Status == SharePending && !r.Expired(now)
}

func (r *ShareRequest) Approve(now time.Time, responseMessage *string) error {
	if r.Status != SharePending {
		return fmt.Errorf("entity - ShareRequest.Approve - status=%s: %w", r.Status, errs.ErrInvalidState)
	}
	if r.Expired(now) {
		return fmt.Errorf("entity - ShareRequest.Approve: %w", errs.ErrExpired)
	}

	r.Status = ShareApproved
	r.ResponseMessage = responseMessage
	r.RespondedAt = &now

	return nil
}

// Reject deliberately skips the expiration check: rejecting an expired
// request is allowed. That mirrors the original workflow behavior.
func (r *ShareRequest) Reject(now time.Time, responseMessage *string) error {
	if r.Status != SharePending {
		return fmt.Errorf("entity - ShareRequest.Reject - status=%s: %w", r.Status, errs.ErrInvalidState)
	}

	r.Status = ShareRejected
	r.ResponseMessage = responseMessage
	r.RespondedAt = &now

	return nil
}

func (r *ShareRequest) Cancel(now time.Time) error {
	if r.Status != SharePending {
		return fmt.Errorf("entity - ShareRequest.Cancel - status=%s: %w", r.Status, errs.ErrInvalidState)
	}

	r.Status = ShareCancelled
	r.RespondedAt = &now

	return nil
}
