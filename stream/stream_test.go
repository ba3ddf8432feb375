package stream

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nvr-ai/go-silhouette/images"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestHubPublishAndSubscribe(t *testing.T) {
	hub := NewHub(HubOptions{Logger: zaptest.NewLogger(t).Sugar()})
	defer hub.Close()
	assert.Nil(t, hub.Latest())

	frames, cancel := hub.Subscribe()
	defer cancel()
	assert.Equal(t, 1, hub.Clients())

	require.NoError(t, hub.Publish(solid(32, 24, color.RGBA{200, 10, 10, 255})))
	frame := <-frames
	require.NotNil(t, frame)
	assert.Equal(t, uint64(1), frame.Seq)
	assert.Equal(t, images.FormatJPEG, frame.Format)
	assert.Equal(t, 32, frame.Width)
	assert.Equal(t, 24, frame.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(frame.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), decoded.Bounds())
}

func TestHubLateSubscriberGetsLatest(t *testing.T) {
	hub := NewHub(HubOptions{})
	defer hub.Close()
	require.NoError(t, hub.Publish(solid(8, 8, color.RGBA{0, 0, 0, 255})))
	require.NoError(t, hub.Publish(solid(8, 8, color.RGBA{255, 255, 255, 255})))

	frames, cancel := hub.Subscribe()
	defer cancel()
	frame := <-frames
	assert.Equal(t, uint64(2), frame.Seq)
}

func TestHubSlowSubscriberSkipsFrames(t *testing.T) {
	hub := NewHub(HubOptions{})
	defer hub.Close()
	frames, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Publish(solid(8, 8, color.RGBA{uint8(i * 40), 0, 0, 255})))
	}
	frame := <-frames
	assert.Equal(t, uint64(5), frame.Seq)
	select {
	case extra := <-frames:
		t.Fatalf("unexpected queued frame %d", extra.Seq)
	default:
	}
}

func TestHubReusesEncodingForIdenticalFrames(t *testing.T) {
	hub := NewHub(HubOptions{})
	defer hub.Close()
	img := solid(16, 16, color.RGBA{10, 20, 30, 255})

	require.NoError(t, hub.Publish(img))
	first := hub.Latest()
	require.NoError(t, hub.Publish(solid(16, 16, color.RGBA{10, 20, 30, 255})))
	second := hub.Latest()

	assert.Equal(t, first.Checksum, second.Checksum)
	assert.Equal(t, uint64(2), second.Seq)
	require.NotEmpty(t, first.Data)
	assert.Same(t, &first.Data[0], &second.Data[0])
}

func TestHubDownscales(t *testing.T) {
	hub := NewHub(HubOptions{MaxWidth: 40, Format: images.FormatPNG})
	defer hub.Close()
	require.NoError(t, hub.Publish(solid(80, 60, color.RGBA{0, 255, 0, 255})))
	frame := hub.Latest()
	assert.Equal(t, 40, frame.Width)
	assert.Equal(t, 30, frame.Height)
	assert.Equal(t, images.FormatPNG, frame.Format)

	// Narrower frames are left alone.
	require.NoError(t, hub.Publish(solid(20, 10, color.RGBA{0, 255, 0, 255})))
	assert.Equal(t, 20, hub.Latest().Width)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(HubOptions{})
	frames, cancel := hub.Subscribe()
	hub.Close()
	hub.Close()

	_, ok := <-frames
	assert.False(t, ok)
	cancel()
	assert.Equal(t, 0, hub.Clients())
	assert.ErrorIs(t, hub.Publish(solid(4, 4, color.RGBA{})), ErrHubClosed)

	late, _ := hub.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := NewHub(HubOptions{})
	defer hub.Close()
	_, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.Clients())
	cancel()
	cancel()
	assert.Equal(t, 0, hub.Clients())
}

func TestMJPEGHandlerStreamsParts(t *testing.T) {
	hub := NewHub(HubOptions{})
	require.NoError(t, hub.Publish(solid(16, 12, color.RGBA{255, 0, 0, 255})))

	srv := httptest.NewServer(MJPEGHandler(hub, zaptest.NewLogger(t).Sugar()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mediaType, mparams, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace", mediaType)
	assert.Equal(t, Boundary, mparams["boundary"])

	reader := multipart.NewReader(resp.Body, Boundary)
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", part.Header.Get("Content-Type"))
	data := readPart(t, part)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	require.NoError(t, hub.Publish(solid(16, 12, color.RGBA{0, 0, 255, 255})))
	part, err = reader.NextPart()
	require.NoError(t, err)
	assert.NotEmpty(t, readPart(t, part))

	// Closing the hub ends the response with a closing boundary.
	hub.Close()
	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

// readPart reads exactly Content-Length bytes so the read does not wait for
// the next boundary.
func readPart(t *testing.T, part *multipart.Part) []byte {
	t.Helper()
	n, err := strconv.Atoi(part.Header.Get("Content-Length"))
	require.NoError(t, err)
	data := make([]byte, n)
	_, err = io.ReadFull(part, data)
	require.NoError(t, err)
	return data
}
