// Package imagestore normalizes uploaded product photos and keeps them on
// disk, content-addressed so repeat uploads of the same image dedupe to one
// file.
package imagestore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/partscope/partscope/internal/model"
)

const jpegQuality = 95

var validID = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Store keeps normalized JPEGs in a single directory.
type Store struct {
	dir      string
	maxBytes int64
	maxEdge  int
}

// New creates the backing directory if needed.
func New(dir string, maxBytes int64, maxEdge int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "imagestore: create dir %s", dir)
	}
	return &Store{dir: dir, maxBytes: maxBytes, maxEdge: maxEdge}, nil
}

// Save decodes, normalizes, and persists an uploaded image. Normalization
// flattens transparency onto white, caps the longest edge, and re-encodes
// as JPEG. The returned id is the SHA-256 of the original upload, so the
// same bytes always map to the same stored file.
func (s *Store) Save(data []byte) (id string, width, height int, err error) {
	if len(data) == 0 {
		return "", 0, 0, eris.Wrap(model.ErrImageUnreadable, "imagestore: empty upload")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", 0, 0, eris.Wrapf(model.ErrImageUnreadable, "imagestore: upload of %d bytes exceeds limit", len(data))
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, eris.Wrapf(model.ErrImageUnreadable, "imagestore: decode: %v", err)
	}

	img := flatten(src)
	if s.maxEdge > 0 {
		img = capEdge(img, s.maxEdge)
	}

	sum := sha256.Sum256(data)
	id = hex.EncodeToString(sum[:])
	path := s.path(id)

	if _, statErr := os.Stat(path); statErr == nil {
		b := img.Bounds()
		return id, b.Dx(), b.Dy(), nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", 0, 0, eris.Wrap(err, "imagestore: encode jpeg")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", 0, 0, eris.Wrapf(err, "imagestore: write %s", path)
	}

	b := img.Bounds()
	zap.L().Info("imagestore: saved upload",
		zap.String("id", id),
		zap.String("format", format),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("bytes", buf.Len()),
	)
	return id, b.Dx(), b.Dy(), nil
}

// Load returns the normalized JPEG bytes for an id. A missing or malformed
// id is model.ErrImageUnreadable.
func (s *Store) Load(id string) ([]byte, error) {
	if !validID.MatchString(id) {
		return nil, eris.Wrapf(model.ErrImageUnreadable, "imagestore: malformed id %q", id)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, eris.Wrapf(model.ErrImageUnreadable, "imagestore: read %s: %v", id, err)
	}
	return data, nil
}

// Exists reports whether an id has a stored image.
func (s *Store) Exists(id string) bool {
	if !validID.MatchString(id) {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Dims returns the stored image's pixel dimensions.
func (s *Store) Dims(id string) (width, height int, err error) {
	data, err := s.Load(id)
	if err != nil {
		return 0, 0, err
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, eris.Wrapf(model.ErrImageUnreadable, "imagestore: decode config %s: %v", id, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Path returns the on-disk location for serving the file directly.
func (s *Store) Path(id string) (string, error) {
	if !validID.MatchString(id) {
		return "", eris.Wrapf(model.ErrImageUnreadable, "imagestore: malformed id %q", id)
	}
	return s.path(id), nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".jpg")
}

// flatten composites the image onto a white background so transparency
// survives the trip to JPEG.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func capEdge(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}
	if w >= h {
		return imaging.Resize(img, maxEdge, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxEdge, imaging.Lanczos)
}
