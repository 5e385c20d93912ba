// Package seed imports a device catalog from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/frostdev-ops/home-planner-go/internal/database/repositories"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Catalog is a YAML catalog file
type Catalog struct {
	Devices []DeviceEntry `yaml:"devices"`
	Floors  []FloorEntry  `yaml:"floors"`
}

type SpecEntry struct {
	Name       string `yaml:"name"`
	Value      string `yaml:"value"`
	Evaluation string `yaml:"evaluation"`
}

type DeviceEntry struct {
	Category                   string      `yaml:"category"`
	Name                       string      `yaml:"name"`
	Brand                      string      `yaml:"brand"`
	Price                      float64     `yaml:"price"`
	PriceEvaluation            string      `yaml:"price_evaluation"`
	HomeAssistantCompatibility int         `yaml:"home_assistant_compatibility"`
	Tags                       []string    `yaml:"tags"`
	Specs                      []SpecEntry `yaml:"specs"`
	Quantity                   int         `yaml:"quantity"`
	Connectivity               string      `yaml:"connectivity"`
	IsGateway                  bool        `yaml:"is_gateway"`
	GatewayProtocols           []string    `yaml:"gateway_protocols"`
	Link                       string      `yaml:"link"`
	Notes                      string      `yaml:"notes"`
}

type FloorEntry struct {
	Name string `yaml:"name"`
}

// Device converts the entry to a catalog device
func (e DeviceEntry) Device() types.Device {
	return types.Device{
		Category:                   types.Category(strings.TrimSpace(e.Category)),
		Name:                       e.Name,
		Brand:                      e.Brand,
		Price:                      e.Price,
		PriceEvaluation:            types.Evaluation(e.PriceEvaluation),
		HomeAssistantCompatibility: e.HomeAssistantCompatibility,
		Tags:                       e.Tags,
		Specs: lo.Map(e.Specs, func(s SpecEntry, _ int) types.Specification {
			return types.Specification{Name: s.Name, Value: s.Value, Evaluation: types.Evaluation(s.Evaluation)}
		}),
		Quantity:     e.Quantity,
		Connectivity: types.Connectivity(e.Connectivity),
		IsGateway:    e.IsGateway,
		GatewayProtocols: lo.Map(e.GatewayProtocols, func(p string, _ int) types.Connectivity {
			return types.Connectivity(p)
		}),
		Link:  e.Link,
		Notes: e.Notes,
	}
}

// Parse decodes a catalog. Unknown keys are rejected so typos surface early.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &c, nil
}

// Load reads a catalog file
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Target receives imported records
type Target interface {
	ListDevices(ctx context.Context, category types.Category, q repositories.Query) ([]types.Device, error)
	CreateDevice(ctx context.Context, d *types.Device) error
	ListFloors(ctx context.Context, q repositories.Query) ([]types.Floor, error)
	CreateFloor(ctx context.Context, f *types.Floor) error
}

// EntryError reports an entry the target rejected
type EntryError struct {
	Index int
	Name  string
	Err   error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("entry %d (%s): %v", e.Index, e.Name, e.Err)
}

// Result summarizes an import
type Result struct {
	Created  int          `json:"created"`
	Skipped  int          `json:"skipped"`
	Rejected []EntryError `json:"-"`
}

// Importer writes catalog entries that are not already present.
// A device is present when a device of the same category has the same
// brand and name, compared case-insensitively. Floors match by name.
type Importer struct {
	target Target
	// Invalid reports whether err is an entry validation failure. Such
	// entries are collected in the result; any other error aborts the import.
	Invalid func(err error) bool
	log     *logrus.Logger
}

func NewImporter(target Target, invalid func(error) bool, log *logrus.Logger) *Importer {
	if invalid == nil {
		invalid = func(error) bool { return false }
	}
	return &Importer{target: target, Invalid: invalid, log: log}
}

func deviceKey(category types.Category, brand, name string) string {
	return string(category) + "\x00" + strings.ToLower(strings.TrimSpace(brand)) + "\x00" + strings.ToLower(strings.TrimSpace(name))
}

// Import writes the catalog
func (im *Importer) Import(ctx context.Context, c *Catalog) (Result, error) {
	var res Result

	floors, err := im.target.ListFloors(ctx, repositories.Query{})
	if err != nil {
		return res, err
	}
	floorNames := lo.SliceToMap(floors, func(f types.Floor) (string, bool) {
		return strings.ToLower(strings.TrimSpace(f.Name)), true
	})
	for i, entry := range c.Floors {
		key := strings.ToLower(strings.TrimSpace(entry.Name))
		if floorNames[key] {
			res.Skipped++
			continue
		}
		f := &types.Floor{Name: entry.Name}
		if err := im.target.CreateFloor(ctx, f); err != nil {
			if im.Invalid(err) {
				res.Rejected = append(res.Rejected, EntryError{Index: i, Name: entry.Name, Err: err})
				continue
			}
			return res, err
		}
		floorNames[key] = true
		res.Created++
	}

	existing := make(map[string]bool)
	for _, category := range types.Categories {
		devices, err := im.target.ListDevices(ctx, category, repositories.Query{})
		if err != nil {
			return res, err
		}
		for _, d := range devices {
			existing[deviceKey(d.Category, d.Brand, d.Name)] = true
		}
	}

	for i, entry := range c.Devices {
		d := entry.Device()
		key := deviceKey(d.Category, d.Brand, d.Name)
		if existing[key] {
			res.Skipped++
			continue
		}
		if err := im.target.CreateDevice(ctx, &d); err != nil {
			if im.Invalid(err) {
				res.Rejected = append(res.Rejected, EntryError{Index: i, Name: entry.Name, Err: err})
				continue
			}
			return res, err
		}
		existing[key] = true
		res.Created++
	}

	im.log.WithFields(logrus.Fields{
		"created":  res.Created,
		"skipped":  res.Skipped,
		"rejected": len(res.Rejected),
	}).Info("Catalog imported")
	return res, nil
}
