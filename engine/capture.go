package engine

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnsupportedImageFormat is returned for screenshot paths that are not .png, .bmp or .tiff.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// Capture renders one frame on a headless device and reads the result back.
//
// Returns:
//   - *image.RGBA: the presented frame, top row first
//   - error: a windowed device, a skipped frame, or a render or readback failure
func (e *engine) Capture() (*image.RGBA, error) {
	if !e.device.Headless() {
		return nil, errors.New("capture requires a headless device")
	}
	ok, err := e.RenderFrame()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("capture: frame was skipped")
	}

	frame, err := e.device.AcquireFrame()
	if err != nil {
		return nil, err
	}
	data, err := e.device.ReadTexture(frame.Target)
	if err != nil {
		return nil, fmt.Errorf("reading frame: %w", err)
	}

	w, h := int(frame.Size.Width), int(frame.Size.Height)
	if len(data) != w*h*4 {
		return nil, fmt.Errorf("reading frame: got %d bytes for %dx%d", len(data), w, h)
	}
	return &image.RGBA{Pix: data, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, nil
}

// EncodeImage writes img in the format named by ext.
//
// Parameters:
//   - w: the destination
//   - ext: ".png", ".bmp", ".tif" or ".tiff", case-insensitive
//   - img: the image to encode
//
// Returns:
//   - error: ErrUnsupportedImageFormat or an encoder failure
func EncodeImage(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedImageFormat, ext)
}

// SaveImage writes img to path, choosing the encoder from the extension.
func SaveImage(path string, img image.Image) (err error) {
	ext := filepath.Ext(path)
	switch strings.ToLower(ext) {
	case ".png", ".bmp", ".tif", ".tiff":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedImageFormat, ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := EncodeImage(f, ext, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	logger.Info("screenshot written", zap.String("path", path), zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return nil
}
