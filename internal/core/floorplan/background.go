package floorplan

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/h2non/filetype"
)

var (
	// ErrTooLarge is returned for uploads above the configured limit
	ErrTooLarge = errors.New("background image too large")
	// ErrUnsupportedType is returned when the upload is not an accepted image type
	ErrUnsupportedType = errors.New("unsupported background image type")
	// ErrUndecodable is returned when the bytes claim an image type but do not decode
	ErrUndecodable = errors.New("background image cannot be decoded")
)

// PreviewContentType is the content type of every generated preview
const PreviewContentType = "image/png"

var acceptedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Processor sniffs, decodes and thumbnails floor background uploads
type Processor struct {
	maxBytes      int64
	previewWidth  int
	previewHeight int
}

// NewProcessor creates a Processor from the floorplan configuration
func NewProcessor(cfg config.FloorplanConfig) *Processor {
	p := &Processor{
		maxBytes:      cfg.MaxBackgroundBytes,
		previewWidth:  cfg.PreviewWidth,
		previewHeight: cfg.PreviewHeight,
	}
	if p.previewWidth <= 0 {
		p.previewWidth = 320
	}
	if p.previewHeight <= 0 {
		p.previewHeight = 240
	}
	return p
}

// Process validates an upload and returns the background record to store
func (p *Processor) Process(floorID string, data []byte) (*repositories.Background, error) {
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), p.maxBytes)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !acceptedTypes[kind.MIME.Value] {
		return nil, ErrUnsupportedType
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	preview := imaging.Fit(img, p.previewWidth, p.previewHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, preview, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	bounds := img.Bounds()
	return &repositories.Background{
		FloorID:     floorID,
		ContentType: kind.MIME.Value,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Data:        data,
		Preview:     buf.Bytes(),
	}, nil
}
