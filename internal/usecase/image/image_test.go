package image_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosarev/picshare/internal/entity"
	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/internal/usecase"
	"github.com/nkosarev/picshare/internal/usecase/image"
	"github.com/nkosarev/picshare/pkg/logger"
	"github.com/nkosarev/picshare/pkg/types/errs"
)

var _ usecase.ImageUseCase = (*image.UseCase)(nil)

type imageRepoStub struct {
	records map[uuid.UUID]*entity.Image
}

func (s *imageRepoStub) Create(_ context.Context, img *entity.Image) error {
	s.records[img.ID] = img
	return nil
}

func (s *imageRepoStub) GetByID(_ context.Context, id uuid.UUID) (*entity.Image, error) {
	img, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("imageRepoStub: %w", errs.ErrRecordNotFound)
	}

	return img, nil
}

func (s *imageRepoStub) Update(_ context.Context, img *entity.Image) error {
	s.records[img.ID] = img
	return nil
}

func (s *imageRepoStub) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.records, id)
	return nil
}

type fileStoreStub struct {
	files   map[string][]byte
	failAll bool
}

func (s *fileStoreStub) Read(_ context.Context, path string) ([]byte, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("fileStoreStub: %w", errs.ErrFileNotFound)
	}

	return data, nil
}

func (s *fileStoreStub) Write(_ context.Context, path string, data []byte, _ string) error {
	s.files[path] = data
	return nil
}

func (s *fileStoreStub) Delete(_ context.Context, path string) error {
	if s.failAll {
		return errors.New("storage unavailable")
	}

	delete(s.files, path)

	return nil
}

type busRecorder struct {
	published []event.Event
	fail      bool
}

func (b *busRecorder) Publish(_ context.Context, e event.Event, _ ...infrastructure.PublishOption) error {
	if b.fail {
		return errors.New("broker unreachable")
	}

	b.published = append(b.published, e)

	return nil
}

func (b *busRecorder) Subscribe(context.Context, string, infrastructure.Handler, ...infrastructure.SubscribeOption) error {
	return nil
}

func newImage() *entity.Image {
	ownerID := uuid.New()

	return &entity.Image{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		FileName:   "cat.jpg",
		StoredPath: ownerID.String() + "/cat.jpg",
		MimeType:   "image/jpeg",
		ByteSize:   1234,
		Width:      800,
		Height:     600,
	}
}

func TestCompleteUploadPublishes(t *testing.T) {
	images := &imageRepoStub{records: make(map[uuid.UUID]*entity.Image)}
	bus := &busRecorder{}
	uc := image.New(images, &fileStoreStub{files: map[string][]byte{}}, bus, logger.New("error"))

	img := newImage()
	require.NoError(t, uc.CompleteUpload(context.Background(), img))

	assert.Contains(t, images.records, img.ID)
	require.Len(t, bus.published, 1)

	e, ok := bus.published[0].(event.ImageUploadedEvent)
	require.True(t, ok)
	assert.Equal(t, img.ID, e.ImageID)
	assert.Equal(t, img.StoredPath, e.StoredPath)
	assert.Equal(t, 800, e.Width)
}

func TestCompleteUploadSurvivesBrokerFailure(t *testing.T) {
	images := &imageRepoStub{records: make(map[uuid.UUID]*entity.Image)}
	bus := &busRecorder{fail: true}
	uc := image.New(images, &fileStoreStub{files: map[string][]byte{}}, bus, logger.New("error"))

	img := newImage()
	require.NoError(t, uc.CompleteUpload(context.Background(), img), "upload outcome must not depend on the broker")
	assert.Contains(t, images.records, img.ID)
}

func TestDeleteImage(t *testing.T) {
	images := &imageRepoStub{records: make(map[uuid.UUID]*entity.Image)}
	thumb := "owner/thumbs/thumb_cat.jpg"
	img := newImage()
	img.ThumbnailPath = &thumb
	img.ThumbnailReady = true
	images.records[img.ID] = img

	files := &fileStoreStub{files: map[string][]byte{
		img.StoredPath: []byte("orig"),
		thumb:          []byte("thumb"),
	}}
	uc := image.New(images, files, &busRecorder{}, logger.New("error"))

	require.NoError(t, uc.DeleteImage(context.Background(), img.ID))

	assert.NotContains(t, images.records, img.ID)
	assert.Empty(t, files.files)
}

func TestDeleteImageBlobFailureIsBestEffort(t *testing.T) {
	images := &imageRepoStub{records: make(map[uuid.UUID]*entity.Image)}
	img := newImage()
	images.records[img.ID] = img

	files := &fileStoreStub{files: map[string][]byte{}, failAll: true}
	uc := image.New(images, files, &busRecorder{}, logger.New("error"))

	require.NoError(t, uc.DeleteImage(context.Background(), img.ID))
	assert.NotContains(t, images.records, img.ID)
}

func TestDeleteImageUnknown(t *testing.T) {
	uc := image.New(
		&imageRepoStub{records: make(map[uuid.UUID]*entity.Image)},
		&fileStoreStub{files: map[string][]byte{}},
		&busRecorder{},
		logger.New("error"),
	)

	err := uc.DeleteImage(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}
