package system

import (
	"time"

	"github.com/frostdev-ops/home-planner-go/pkg/version"
)

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Health is the body of the health endpoint
type Health struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Uptime    string          `json:"uptime"`
	Build     version.Info    `json:"build"`
	Database  ComponentHealth `json:"database"`
	Host      *HostStats      `json:"host,omitempty"`
	HostError string          `json:"host_error,omitempty"`
}

// ComponentHealth reports one dependency
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// HostStats is a point-in-time reading of the machine the service runs on
type HostStats struct {
	Hostname string     `json:"hostname"`
	OS       string     `json:"os"`
	Platform string     `json:"platform"`
	CPU      CPUInfo    `json:"cpu"`
	Memory   MemoryInfo `json:"memory"`
	Disk     DiskInfo   `json:"disk"`
}

type CPUInfo struct {
	Usage       float64   `json:"usage"`
	LoadAverage []float64 `json:"load_average"`
	Cores       int       `json:"cores"`
}

type MemoryInfo struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskInfo describes the filesystem holding the database
type DiskInfo struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}
