package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkosarev/picshare/internal/entity"
	"github.com/nkosarev/picshare/pkg/postgres"
	"github.com/nkosarev/picshare/pkg/types/errs"
)

const (
	// Table
	shareRequestsTable = "share_requests"

	// Columns
	requesterIDColumn     = "requester_id"
	shareOwnerIDColumn    = "owner_id"
	imageIDColumn         = "image_id"
	requestMessageColumn  = "request_message"
	responseMessageColumn = "response_message"
	statusColumn          = "status"
	respondedAtColumn     = "responded_at"
	expiresAtColumn       = "expires_at"
)

type ShareRequestRepo struct {
	*postgres.Postgres
}

func NewShareRequestRepo(pg *postgres.Postgres) *ShareRequestRepo {
	return &ShareRequestRepo{pg}
}

func (r *ShareRequestRepo) Create(ctx context.Context, req *entity.ShareRequest) error {
	sql, args, err := r.Builder.
		Insert(shareRequestsTable).
		Columns(
			idColumn,
			requesterIDColumn,
			shareOwnerIDColumn,
			imageIDColumn,
			requestMessageColumn,
			statusColumn,
			createdAtColumn,
			expiresAtColumn,
		).
		Values(
			req.ID,
			req.RequesterID,
			req.OwnerID,
			req.ImageID,
			req.RequestMessage,
			req.Status,
			req.CreatedAt,
			req.ExpiresAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ShareRequestRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ShareRequestRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ShareRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ShareRequest, error) {
	sql, args, err := r.Builder.
		Select(
			idColumn,
			requesterIDColumn,
			shareOwnerIDColumn,
			imageIDColumn,
			requestMessageColumn,
			responseMessageColumn,
			statusColumn,
			createdAtColumn,
			respondedAtColumn,
			expiresAtColumn,
		).
		From(shareRequestsTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ShareRequestRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var req entity.ShareRequest
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&req.ID,
		&req.RequesterID,
		&req.OwnerID,
		&req.ImageID,
		&req.RequestMessage,
		&req.ResponseMessage,
		&req.Status,
		&req.CreatedAt,
		&req.RespondedAt,
		&req.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ShareRequestRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ShareRequestRepo - GetByID - executor.QueryRow.Scan: %w", err)
	}

	return &req, nil
}

func (r *ShareRequestRepo) Update(ctx context.Context, req *entity.ShareRequest) error {
	sql, args, err := r.Builder.
		Update(shareRequestsTable).
		Set(statusColumn, req.Status).
		Set(responseMessageColumn, req.ResponseMessage).
		Set(respondedAtColumn, req.RespondedAt).
		Where(squirrel.Eq{idColumn: req.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ShareRequestRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ShareRequestRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ShareRequestRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ShareRequestRepo) ExistsActive(ctx context.Context, requesterID, ownerID, imageID uuid.UUID) (bool, error) {
	sql, args, err := r.Builder.
		Select("1").
		From(shareRequestsTable).
		Where(squirrel.And{
			squirrel.Eq{requesterIDColumn: requesterID},
			squirrel.Eq{shareOwnerIDColumn: ownerID},
			squirrel.Eq{imageIDColumn: imageID},
			squirrel.NotEq{statusColumn: entity.ShareRejected},
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ShareRequestRepo - ExistsActive - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var one int
	err = executor.QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("ShareRequestRepo - ExistsActive - executor.QueryRow.Scan: %w", err)
	}

	return true, nil
}
