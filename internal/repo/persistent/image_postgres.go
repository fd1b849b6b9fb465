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
	imagesTable = "images"

	// Columns
	idColumn             = "id"
	ownerIDColumn        = "owner_id"
	fileNameColumn       = "file_name"
	storedPathColumn     = "stored_path"
	thumbnailPathColumn  = "thumbnail_path"
	thumbnailReadyColumn = "thumbnail_ready"
	mimeTypeColumn       = "mime_type"
	byteSizeColumn       = "byte_size"
	widthColumn          = "width"
	heightColumn         = "height"
	createdAtColumn      = "created_at"
)

type ImageMetadataRepo struct {
	*postgres.Postgres
}

func NewImageMetadataRepo(pg *postgres.Postgres) *ImageMetadataRepo {
	return &ImageMetadataRepo{pg}
}

func (r *ImageMetadataRepo) Create(ctx context.Context, image *entity.Image) error {
	sql, args, err := r.Builder.
		Insert(imagesTable).
		Columns(
			idColumn,
			ownerIDColumn,
			fileNameColumn,
			storedPathColumn,
			thumbnailReadyColumn,
			mimeTypeColumn,
			byteSizeColumn,
			widthColumn,
			heightColumn,
			createdAtColumn,
		).
		Values(
			image.ID,
			image.OwnerID,
			image.FileName,
			image.StoredPath,
			image.ThumbnailReady,
			image.MimeType,
			image.ByteSize,
			image.Width,
			image.Height,
			image.CreatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - r.Builder.ToSql: %w", err)
	}

	// Pool / Tx
	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(
			idColumn,
			ownerIDColumn,
			fileNameColumn,
			storedPathColumn,
			thumbnailPathColumn,
			thumbnailReadyColumn,
			mimeTypeColumn,
			byteSizeColumn,
			widthColumn,
			heightColumn,
			createdAtColumn,
		).
		From(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - GetByID - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var image entity.Image
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&image.ID,
		&image.OwnerID,
		&image.FileName,
		&image.StoredPath,
		&image.ThumbnailPath,
		&image.ThumbnailReady,
		&image.MimeType,
		&image.ByteSize,
		&image.Width,
		&image.Height,
		&image.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ImageMetadataRepo - GetByID: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ImageMetadataRepo - GetByID - executor.QueryRow.Scan: %w", err)
	}

	return &image, nil
}

func (r *ImageMetadataRepo) Update(ctx context.Context, image *entity.Image) error {
	sql, args, err := r.Builder.
		Update(imagesTable).
		Set(thumbnailPathColumn, image.ThumbnailPath).
		Set(thumbnailReadyColumn, image.ThumbnailReady).
		Where(squirrel.Eq{idColumn: image.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Update - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Update - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImageMetadataRepo - Update: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ImageMetadataRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImageMetadataRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}
