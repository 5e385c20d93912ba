package floorplan

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, A: 255}), format))
	return buf.Bytes()
}

func TestValidateLayout(t *testing.T) {
	idx := types.IndexDevices([]types.Device{{ID: "d1", Name: "Lamp"}})

	tests := []struct {
		name    string
		layout  types.FloorLayout
		wantErr string
	}{
		{
			name: "valid",
			layout: types.FloorLayout{
				Walls:         []types.Wall{{ID: "w", Start: types.Point{X: 0, Y: 0}, End: types.Point{X: 1, Y: 0}}},
				PlacedDevices: []types.PlacedDevice{{InstanceID: "p", DeviceID: "d1", X: 1, Y: 1}},
			},
		},
		{
			name:    "unknown device",
			layout:  types.FloorLayout{PlacedDevices: []types.PlacedDevice{{InstanceID: "p", DeviceID: "missing"}}},
			wantErr: `unknown device "missing"`,
		},
		{
			name:    "infinite coordinate",
			layout:  types.FloorLayout{Walls: []types.Wall{{ID: "w", Start: types.Point{X: math.Inf(1)}, End: types.Point{X: 1}}}},
			wantErr: "coordinates must be finite",
		},
		{
			name:    "zero length wall",
			layout:  types.FloorLayout{Walls: []types.Wall{{ID: "w", Start: types.Point{X: 1, Y: 1}, End: types.Point{X: 1, Y: 1}}}},
			wantErr: "same point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayout(tt.layout, idx)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidLayout)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeLayout(t *testing.T) {
	out := NormalizeLayout(types.FloorLayout{Walls: []types.Wall{{End: types.Point{X: 1}}}})
	require.Len(t, out.Walls, 1)
	assert.NotEmpty(t, out.Walls[0].ID)
	assert.NotNil(t, out.PlacedDevices)
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(config.FloorplanConfig{MaxBackgroundBytes: 1 << 20, PreviewWidth: 32, PreviewHeight: 32})

	bg, err := p.Process("f1", encode(t, 128, 64, imaging.PNG))
	require.NoError(t, err)
	assert.Equal(t, "f1", bg.FloorID)
	assert.Equal(t, "image/png", bg.ContentType)
	assert.Equal(t, 128, bg.Width)
	assert.Equal(t, 64, bg.Height)

	preview, err := imaging.Decode(bytes.NewReader(bg.Preview))
	require.NoError(t, err)
	assert.Equal(t, 32, preview.Bounds().Dx())
	assert.Equal(t, 16, preview.Bounds().Dy())

	jpg, err := p.Process("f1", encode(t, 10, 10, imaging.JPEG))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", jpg.ContentType)
}

func TestProcessor_Rejects(t *testing.T) {
	p := NewProcessor(config.FloorplanConfig{MaxBackgroundBytes: 64})

	_, err := p.Process("f1", []byte("just some text, not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = p.Process("f1", bytes.Repeat([]byte{0}, 65))
	assert.ErrorIs(t, err, ErrTooLarge)

	// png magic followed by garbage
	_, err = p.Process("f1", []byte("\x89PNG\r\n\x1a\n garbage"))
	assert.ErrorIs(t, err, ErrUndecodable)
}
