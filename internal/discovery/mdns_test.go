package discovery

import (
	"net"
	"testing"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry("Home Planner den", DefaultService, DefaultDomain)
	entry.HostName = "den.local."
	entry.Port = 8080
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.Text = []string{"version=1.0.0", "path=/api/v1", "broken"}

	inst, ok := fromEntry(entry)
	require.True(t, ok)
	assert.Equal(t, "Home Planner den", inst.Name)
	assert.Equal(t, map[string]string{"version": "1.0.0", "path": "/api/v1"}, inst.Text)
	assert.Equal(t, "http://192.168.1.20:8080/api/v1", inst.URL())

	_, ok = fromEntry(zeroconf.NewServiceEntry("no address", DefaultService, DefaultDomain))
	assert.False(t, ok)
}

func TestWithDefaults(t *testing.T) {
	cfg := withDefaults(config.DiscoveryConfig{Instance: "den"})
	assert.Equal(t, DefaultService, cfg.Service)
	assert.Equal(t, DefaultDomain, cfg.Domain)
	assert.Equal(t, "den", cfg.Instance)

	assert.Contains(t, TXT(), "path=/api/v1")
}
