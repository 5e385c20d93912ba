// Package backup writes compressed snapshots of the planner state to disk,
// on demand or on a cron schedule, and restores them.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/config"
	"github.com/frostdev-ops/home-planner-go/internal/core/metrics"
	"github.com/frostdev-ops/home-planner-go/internal/core/types"
	"github.com/gosimple/slug"
	"github.com/klauspost/compress/zstd"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// FormatVersion is written into every archive
	FormatVersion = 1

	fileExt = ".json.zst"
)

var (
	// ErrNotFound is returned for unknown backup ids
	ErrNotFound = errors.New("backup not found")
	// ErrInvalidArchive is returned when an archive cannot be decoded
	ErrInvalidArchive = errors.New("invalid backup archive")
	// ErrTooLarge is returned when an archive decodes past the import limit
	ErrTooLarge = errors.New("backup archive too large")

	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Store is the planner state being backed up
type Store interface {
	Snapshot(ctx context.Context) (*types.Snapshot, error)
	Restore(ctx context.Context, snap *types.Snapshot) error
}

// Backup describes one archive on disk
type Backup struct {
	ID        string    `json:"id"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive is the decoded content of a backup file
type Archive struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Snapshot  types.Snapshot `json:"snapshot"`
}

// Manager creates, lists, prunes and restores backups in a directory
type Manager struct {
	cfg     config.BackupConfig
	store   Store
	metrics metrics.Collector
	logger  *logrus.Logger
	cron    *cron.Cron

	// mu serializes writes and pruning of the backup directory
	mu sync.Mutex
}

// NewManager creates the backup directory and returns a manager for it
func NewManager(cfg config.BackupConfig, store Store, collector metrics.Collector, logger *logrus.Logger) (*Manager, error) {
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Manager{
		cfg:     cfg,
		store:   store,
		metrics: collector,
		logger:  logger,
		cron:    cron.New(),
	}, nil
}

// Start schedules periodic backups when enabled
func (m *Manager) Start() error {
	if !m.cfg.Enabled {
		return nil
	}
	_, err := m.cron.AddFunc(m.cfg.Schedule, func() {
		m.logger.Info("Running scheduled backup")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := m.CreateBackup(ctx, "scheduled"); err != nil {
			m.logger.WithError(err).Error("Scheduled backup failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	m.cron.Start()
	m.logger.WithField("schedule", m.cfg.Schedule).Info("Backup schedule started")
	return nil
}

// Stop waits for a running scheduled backup to finish
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}

// CreateBackup writes the current state to a new archive and prunes old ones
func (m *Manager) CreateBackup(ctx context.Context, name string) (*Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	label := slug.Make(name)
	if label == "" {
		label = "backup"
	}
	id := fmt.Sprintf("%s-%s", label, now.Format("20060102T150405.000Z"))
	path := filepath.Join(m.cfg.Path, id+fileExt)

	size, err := m.writeFile(ctx, path)
	m.metrics.RecordBackup(err == nil, size)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"backup_id": id,
		"size":      size,
	}).Info("Backup created")

	m.prune()
	return &Backup{ID: id, Size: size, CreatedAt: now}, nil
}

func (m *Manager) writeFile(ctx context.Context, path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if err := m.Export(ctx, f); err != nil {
		return 0, err
	}
	if err := f.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync backup file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat backup file: %w", err)
	}
	return info.Size(), nil
}

// Export writes the current state as a compressed archive to w
func (m *Manager) Export(ctx context.Context, w io.Writer) error {
	snap, err := m.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read planner state: %w", err)
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	archive := Archive{Version: FormatVersion, CreatedAt: time.Now().UTC(), Snapshot: *snap}
	if err := json.NewEncoder(enc).Encode(archive); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush backup: %w", err)
	}
	return nil
}

// Decode reads an archive, compressed or plain JSON. A bare snapshot without
// the archive envelope is accepted too. A positive limit caps the decoded
// size in bytes.
func Decode(r io.Reader, limit int64) (*Archive, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if limit > 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(uint64(limit)))
		}
		dec, err := zstd.NewReader(br, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		defer dec.Close()
		src = dec
	}
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	raw, err := io.ReadAll(src)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("%w: decoded size exceeds %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if limit > 0 && int64(len(raw)) > limit {
		return nil, fmt.Errorf("%w: decoded size exceeds %d bytes", ErrTooLarge, limit)
	}

	var envelope struct {
		Version   int             `json:"version"`
		CreatedAt time.Time       `json:"created_at"`
		Snapshot  json.RawMessage `json:"snapshot"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	archive := &Archive{Version: envelope.Version, CreatedAt: envelope.CreatedAt}
	body := []byte(envelope.Snapshot)
	if envelope.Snapshot == nil {
		body = raw
	}
	if err := json.Unmarshal(body, &archive.Snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if archive.Version > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidArchive, archive.Version)
	}
	return archive, nil
}

// Import replaces the planner state with the archive read from r
func (m *Manager) Import(ctx context.Context, r io.Reader) error {
	archive, err := Decode(r, m.cfg.MaxImportBytes)
	if err != nil {
		return err
	}
	return m.store.Restore(ctx, &archive.Snapshot)
}

// RestoreBackup replaces the planner state with a stored archive
func (m *Manager) RestoreBackup(ctx context.Context, id string) error {
	f, err := m.open(id)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := m.Import(ctx, f); err != nil {
		return err
	}
	m.logger.WithField("backup_id", id).Info("Backup restored")
	return nil
}

// Open returns the raw archive of a backup for download
func (m *Manager) Open(id string) (io.ReadCloser, error) {
	return m.open(id)
}

func (m *Manager) open(id string) (*os.File, error) {
	path, err := m.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open backup: %w", err)
	}
	return f, nil
}

// ListBackups returns the stored backups, newest first
func (m *Manager) ListBackups() ([]Backup, error) {
	entries, err := os.ReadDir(m.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]Backup, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			ID:        strings.TrimSuffix(e.Name(), fileExt),
			Size:      info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].CreatedAt.Equal(backups[j].CreatedAt) {
			return backups[i].CreatedAt.After(backups[j].CreatedAt)
		}
		return backups[i].ID > backups[j].ID
	})
	return backups, nil
}

// DeleteBackup removes a stored backup
func (m *Manager) DeleteBackup(id string) error {
	path, err := m.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}

// prune keeps the newest Retention backups
func (m *Manager) prune() {
	if m.cfg.Retention <= 0 {
		return
	}
	backups, err := m.ListBackups()
	if err != nil {
		m.logger.WithError(err).Error("Failed to list backups for cleanup")
		return
	}
	for i := m.cfg.Retention; i < len(backups); i++ {
		if err := m.DeleteBackup(backups[i].ID); err != nil {
			m.logger.WithError(err).WithField("backup_id", backups[i].ID).Error("Failed to delete old backup")
			continue
		}
		m.logger.WithField("backup_id", backups[i].ID).Info("Deleted old backup")
	}
}

// path maps an id to its file, refusing anything that could leave the directory
func (m *Manager) path(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return filepath.Join(m.cfg.Path, id+fileExt), nil
}
