package imagestore

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partscope/partscope/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), 16<<20, 2048)
	require.NoError(t, err)
	return s
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func encodePNGWithAlpha(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	// fully transparent image
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	data := encodeJPEG(t, 320, 240)

	id, w, h, err := s.Save(data)
	require.NoError(t, err)
	assert.Len(t, id, 64)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
	assert.True(t, s.Exists(id))

	stored, err := s.Load(id)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)

	dw, dh, err := s.Dims(id)
	require.NoError(t, err)
	assert.Equal(t, 320, dw)
	assert.Equal(t, 240, dh)
}

func TestSaveDeduplicates(t *testing.T) {
	s := newStore(t)
	data := encodeJPEG(t, 100, 100)

	id1, _, _, err := s.Save(data)
	require.NoError(t, err)
	id2, _, _, err := s.Save(data)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestSaveDownscalesLargeImages(t *testing.T) {
	s, err := New(t.TempDir(), 64<<20, 256)
	require.NoError(t, err)

	id, w, h, err := s.Save(encodeJPEG(t, 512, 384))
	require.NoError(t, err)
	assert.Equal(t, 256, w, "longest edge capped")
	assert.Equal(t, 192, h, "aspect ratio preserved")

	dw, dh, err := s.Dims(id)
	require.NoError(t, err)
	assert.Equal(t, 256, dw)
	assert.Equal(t, 192, dh)
}

func TestSaveFlattensAlphaToWhite(t *testing.T) {
	s := newStore(t)
	id, _, _, err := s.Save(encodePNGWithAlpha(t, 8, 8))
	require.NoError(t, err)

	stored, err := s.Load(id)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(stored))
	require.NoError(t, err)

	r, g, b, _ := img.At(4, 4).RGBA()
	assert.Greater(t, r, uint32(60000))
	assert.Greater(t, g, uint32(60000))
	assert.Greater(t, b, uint32(60000))
}

func TestSaveRejectsGarbage(t *testing.T) {
	s := newStore(t)
	_, _, _, err := s.Save([]byte("definitely not an image"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrImageUnreadable)
}

func TestSaveRejectsEmpty(t *testing.T) {
	s := newStore(t)
	_, _, _, err := s.Save(nil)
	assert.ErrorIs(t, err, model.ErrImageUnreadable)
}

func TestSaveRejectsOversized(t *testing.T) {
	s, err := New(t.TempDir(), 64, 2048)
	require.NoError(t, err)
	_, _, _, err = s.Save(encodeJPEG(t, 100, 100))
	assert.ErrorIs(t, err, model.ErrImageUnreadable)
}

func TestLoadUnknownID(t *testing.T) {
	s := newStore(t)
	_, err := s.Load("deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, model.ErrImageUnreadable)
}

func TestLoadMalformedID(t *testing.T) {
	s := newStore(t)
	_, err := s.Load("../etc/passwd")
	assert.ErrorIs(t, err, model.ErrImageUnreadable)
	assert.False(t, s.Exists("../etc/passwd"))

	_, err = s.Path("nope")
	assert.Error(t, err)
}
