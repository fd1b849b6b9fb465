package thumbnail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosarev/picshare/internal/entity"
	"github.com/nkosarev/picshare/internal/event"
	"github.com/nkosarev/picshare/internal/infrastructure"
	"github.com/nkosarev/picshare/pkg/logger"
	"github.com/nkosarev/picshare/pkg/types/errs"
)

type imageRepoStub struct {
	records map[uuid.UUID]*entity.Image
	updates int
}

func (s *imageRepoStub) Create(_ context.Context, image *entity.Image) error {
	s.records[image.ID] = image
	return nil
}

func (s *imageRepoStub) GetByID(_ context.Context, id uuid.UUID) (*entity.Image, error) {
	image, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("imageRepoStub: %w", errs.ErrRecordNotFound)
	}

	copied := *image
	return &copied, nil
}

func (s *imageRepoStub) Update(_ context.Context, image *entity.Image) error {
	if _, ok := s.records[image.ID]; !ok {
		return fmt.Errorf("imageRepoStub: %w", errs.ErrRecordNotFound)
	}

	copied := *image
	s.records[image.ID] = &copied
	s.updates++

	return nil
}

func (s *imageRepoStub) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.records, id)
	return nil
}

type fileStoreStub struct {
	files  map[string][]byte
	writes int
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
	s.writes++

	return nil
}

func (s *fileStoreStub) Delete(_ context.Context, path string) error {
	delete(s.files, path)
	return nil
}

type busStub struct {
	subscribed []string
	handlers   map[string]infrastructure.Handler
}

func (s *busStub) Publish(context.Context, event.Event, ...infrastructure.PublishOption) error {
	return nil
}

func (s *busStub) Subscribe(_ context.Context, eventName string, h infrastructure.Handler, _ ...infrastructure.SubscribeOption) error {
	s.subscribed = append(s.subscribed, eventName)
	s.handlers[eventName] = h

	return nil
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(width, height, color.NRGBA{R: 120, G: 80, B: 40, A: 255}), imaging.PNG))

	return buf.Bytes()
}

type fixture struct {
	worker *Worker
	images *imageRepoStub
	files  *fileStoreStub
	bus    *busStub
}

func newFixture() *fixture {
	images := &imageRepoStub{records: make(map[uuid.UUID]*entity.Image)}
	files := &fileStoreStub{files: make(map[string][]byte)}
	bus := &busStub{handlers: make(map[string]infrastructure.Handler)}

	return &fixture{
		worker: New(images, files, bus, logger.New("error")),
		images: images,
		files:  files,
		bus:    bus,
	}
}

func (f *fixture) addImage(t *testing.T, width, height int) *entity.Image {
	t.Helper()

	image := &entity.Image{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		FileName:  "photo.png",
		MimeType:  "image/png",
		Width:     width,
		Height:    height,
		CreatedAt: time.Now(),
	}
	image.StoredPath = image.OwnerID.String() + "/photo.png"

	f.images.records[image.ID] = image
	f.files.files[image.StoredPath] = encodePNG(t, width, height)

	return image
}

func payloadFor(t *testing.T, image *entity.Image) infrastructure.Message {
	t.Helper()

	body, err := json.Marshal(event.ImageUploadedEvent{
		ImageID:    image.ID,
		OwnerID:    image.OwnerID,
		StoredPath: image.StoredPath,
		FileName:   image.FileName,
		MimeType:   image.MimeType,
		Width:      image.Width,
		Height:     image.Height,
	})
	require.NoError(t, err)

	return infrastructure.Message{Body: body, EventType: "ImageUploadedEvent"}
}

func TestFitBox(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{800, 600, 300, 225},
		{600, 800, 225, 300},
		{300, 300, 300, 300},
		{1000, 1000, 300, 300},
		{100, 50, 300, 150},
		{1920, 1080, 300, 168},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.w, tt.h), func(t *testing.T) {
			gotW, gotH := fitBox(tt.w, tt.h)

			assert.Equal(t, tt.wantW, gotW)
			assert.Equal(t, tt.wantH, gotH)
			assert.LessOrEqual(t, gotW, 300)
			assert.LessOrEqual(t, gotH, 300)
			assert.InDelta(t, float64(tt.w)/float64(tt.h), float64(gotW)/float64(gotH), 0.02)
		})
	}
}

func TestHandleGeneratesThumbnail(t *testing.T) {
	f := newFixture()
	image := f.addImage(t, 800, 600)

	require.NoError(t, f.worker.handle(context.Background(), payloadFor(t, image)))

	stored := f.images.records[image.ID]
	require.True(t, stored.ThumbnailReady)
	require.NotNil(t, stored.ThumbnailPath)
	assert.Equal(t, image.OwnerID.String()+"/thumbs/thumb_photo.png", *stored.ThumbnailPath)

	thumbData, ok := f.files.files[*stored.ThumbnailPath]
	require.True(t, ok)

	thumb, err := imaging.Decode(bytes.NewReader(thumbData))
	require.NoError(t, err)
	assert.Equal(t, 300, thumb.Bounds().Dx())
	assert.Equal(t, 225, thumb.Bounds().Dy())
}

func TestHandleDuplicateDeliveryIsNoop(t *testing.T) {
	f := newFixture()
	image := f.addImage(t, 640, 480)
	msg := payloadFor(t, image)

	require.NoError(t, f.worker.handle(context.Background(), msg))
	require.NoError(t, f.worker.handle(context.Background(), msg))

	assert.Equal(t, 1, f.files.writes, "second delivery must not re-render")
	assert.Equal(t, 1, f.images.updates)
	assert.True(t, f.images.records[image.ID].ThumbnailReady)
}

func TestHandleMissingRecordIsSwallowed(t *testing.T) {
	f := newFixture()

	body, err := json.Marshal(event.ImageUploadedEvent{ImageID: uuid.New()})
	require.NoError(t, err)

	assert.NoError(t, f.worker.handle(context.Background(), infrastructure.Message{Body: body}))
	assert.Zero(t, f.files.writes)
}

func TestHandleMissingSourceFileIsSwallowed(t *testing.T) {
	f := newFixture()
	image := f.addImage(t, 800, 600)
	delete(f.files.files, image.StoredPath)

	assert.NoError(t, f.worker.handle(context.Background(), payloadFor(t, image)))
	assert.False(t, f.images.records[image.ID].ThumbnailReady)
}

func TestHandleCorruptSourceIsSwallowed(t *testing.T) {
	f := newFixture()
	image := f.addImage(t, 800, 600)
	f.files.files[image.StoredPath] = []byte("not an image")

	assert.NoError(t, f.worker.handle(context.Background(), payloadFor(t, image)))
	assert.False(t, f.images.records[image.ID].ThumbnailReady)
}

func TestHandleMalformedPayloadFails(t *testing.T) {
	f := newFixture()

	err := f.worker.handle(context.Background(), infrastructure.Message{Body: []byte("{")})
	assert.Error(t, err, "undecodable payloads go back to the bus for a nack")
}

func TestStart(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.worker.Start(context.Background()))
	assert.Equal(t, []string{"ImageUploadedEvent"}, f.bus.subscribed)

	assert.Error(t, f.worker.Start(context.Background()), "second Start must fail")
}
