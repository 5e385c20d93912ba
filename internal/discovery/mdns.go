// Package discovery advertises the planner API on the local network over
// mDNS and finds other planner instances.
package discovery

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/pkg/version"
	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

const (
	DefaultService = "_homeplanner._tcp"
	DefaultDomain  = "local."
	apiPath        = "/api/v1"
)

// Instance is a planner found on the network
type Instance struct {
	Name    string            `json:"name"`
	Host    string            `json:"host"`
	Address string            `json:"address"`
	Port    int               `json:"port"`
	Text    map[string]string `json:"text"`
}

// URL returns the base URL of the instance API
func (i Instance) URL() string {
	path := i.Text["path"]
	if path == "" {
		path = apiPath
	}
	return fmt.Sprintf("http://%s:%d%s", i.Address, i.Port, path)
}

func withDefaults(cfg config.DiscoveryConfig) config.DiscoveryConfig {
	if cfg.Service == "" {
		cfg.Service = DefaultService
	}
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.Instance == "" {
		host, _ := os.Hostname()
		cfg.Instance = "Home Planner " + host
	}
	return cfg
}

// TXT builds the TXT records of the advertisement
func TXT() []string {
	return []string{
		"version=" + version.Short(),
		"path=" + apiPath,
		"ws=/ws",
	}
}

// Advertise registers the service and keeps it registered until ctx ends
func Advertise(ctx context.Context, cfg config.DiscoveryConfig, port int, logger *logrus.Logger) error {
	cfg = withDefaults(cfg)

	server, err := zeroconf.Register(cfg.Instance, cfg.Service, cfg.Domain, port, TXT(), nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"instance": cfg.Instance,
		"service":  cfg.Service,
		"port":     port,
	}).Info("mDNS advertisement started")

	<-ctx.Done()
	server.Shutdown()
	logger.Info("mDNS advertisement stopped")
	return nil
}

// Browse collects planner instances answering within timeout
func Browse(ctx context.Context, cfg config.DiscoveryConfig, timeout time.Duration) ([]Instance, error) {
	cfg = withDefaults(cfg)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 10)
	browseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := resolver.Browse(browseCtx, cfg.Service, cfg.Domain, entries); err != nil {
		return nil, fmt.Errorf("mDNS browse failed: %w", err)
	}

	// the resolver closes entries when browseCtx ends
	seen := make(map[string]bool)
	var found []Instance
	for entry := range entries {
		inst, ok := fromEntry(entry)
		if !ok || seen[inst.Name] {
			continue
		}
		seen[inst.Name] = true
		found = append(found, inst)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

func fromEntry(entry *zeroconf.ServiceEntry) (Instance, bool) {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return Instance{}, false
	}
	return Instance{
		Name:    entry.Instance,
		Host:    entry.HostName,
		Address: entry.AddrIPv4[0].String(),
		Port:    entry.Port,
		Text:    parseTXT(entry.Text),
	}, true
}

func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, ok := strings.Cut(txt, "=")
		if ok {
			out[key] = value
		}
	}
	return out
}
