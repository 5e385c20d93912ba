package seed

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

type memoryTarget struct {
	devices []types.Device
	floors  []types.Floor
	fail    error
}

func (m *memoryTarget) ListDevices(_ context.Context, c types.Category, _ repositories.Query) ([]types.Device, error) {
	var out []types.Device
	for _, d := range m.devices {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memoryTarget) CreateDevice(_ context.Context, d *types.Device) error {
	if m.fail != nil {
		return m.fail
	}
	if d.Name == "" {
		return errRejected
	}
	m.devices = append(m.devices, *d)
	return nil
}

func (m *memoryTarget) ListFloors(context.Context, repositories.Query) ([]types.Floor, error) {
	return m.floors, nil
}

func (m *memoryTarget) CreateFloor(_ context.Context, f *types.Floor) error {
	m.floors = append(m.floors, *f)
	return nil
}

const catalog = `
floors:
  - name: Ground
  - name: Attic
devices:
  - category: sensor
    name: Door Contact
    brand: Aqara
    price: 12.5
    price_evaluation: good
    connectivity: zigbee
    quantity: 4
    tags: [door, security]
    specs:
      - {name: Battery, value: CR1632, evaluation: medium}
  - category: voice_assistant
    name: Nest Hub
    brand: Google
    is_gateway: true
    gateway_protocols: [matter]
  - category: switch
    name: ""
`

func newImporter(target Target) *Importer {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewImporter(target, func(err error) bool { return errors.Is(err, errRejected) }, log)
}

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(catalog))
	require.NoError(t, err)
	require.Len(t, c.Devices, 3)
	require.Len(t, c.Floors, 2)

	d := c.Devices[0].Device()
	assert.Equal(t, types.CategorySensor, d.Category)
	assert.Equal(t, types.ConnectivityZigbee, d.Connectivity)
	assert.Equal(t, []string{"door", "security"}, d.Tags)
	assert.Equal(t, types.EvaluationMedium, d.Specs[0].Evaluation)

	va := c.Devices[1].Device()
	assert.True(t, va.IsGateway)
	assert.Equal(t, []types.Connectivity{types.ConnectivityMatter}, va.GatewayProtocols)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("devices:\n  - categry: sensor\n"))
	assert.Error(t, err)

	c, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Devices)
}

func TestImportIsIdempotent(t *testing.T) {
	c, err := Parse(strings.NewReader(catalog))
	require.NoError(t, err)

	target := &memoryTarget{floors: []types.Floor{{ID: "f1", Name: "ground"}}}
	im := newImporter(target)

	res, err := im.Import(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created, "attic and two devices")
	assert.Equal(t, 1, res.Skipped, "ground floor already exists")
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 2, res.Rejected[0].Index)

	res, err = im.Import(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 4, res.Skipped)
	assert.Len(t, target.devices, 2)
}

func TestImportAbortsOnStoreFailure(t *testing.T) {
	c, err := Parse(strings.NewReader(catalog))
	require.NoError(t, err)

	target := &memoryTarget{fail: assert.AnError}
	_, err = newImporter(target).Import(context.Background(), c)
	assert.ErrorIs(t, err, assert.AnError)
}
