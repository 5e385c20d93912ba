package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/frostdev-ops/home-planner-go/internal/core/planner"
	"github.com/frostdev-ops/home-planner-go/internal/core/seed"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
)

const archiveContentType = "application/zstd"

func (h *Handlers) backupsEnabled(c *gin.Context) bool {
	if h.backups == nil {
		utils.SendAppError(c, errNotImplemented)
		return false
	}
	return true
}

func (h *Handlers) GetBackups(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	backups, err := h.backups.ListBackups()
	if err != nil {
		h.fail(c, err, "Failed to list backups")
		return
	}
	sendList(c, backups, len(backups))
}

// CreateBackup writes a backup now; the optional name becomes part of its id
func (h *Handlers) CreateBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	var request struct {
		Name string `json:"name"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &request) {
		return
	}
	if request.Name == "" {
		request.Name = "manual"
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	b, err := h.backups.CreateBackup(ctx, request.Name)
	if err != nil {
		h.fail(c, err, "Failed to create backup")
		return
	}
	utils.SendCreated(c, b)
}

// DownloadBackup streams the compressed archive
func (h *Handlers) DownloadBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	id := c.Param("id")
	f, err := h.backups.Open(id)
	if err != nil {
		h.fail(c, err, "Failed to open backup")
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json.zst"`, id))
	c.DataFromReader(http.StatusOK, -1, archiveContentType, f, nil)
}

func (h *Handlers) RestoreBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.backups.RestoreBackup(ctx, c.Param("id")); err != nil {
		h.fail(c, err, "Failed to restore backup")
		return
	}
	utils.SendSuccess(c, gin.H{"restored": c.Param("id")})
}

func (h *Handlers) DeleteBackup(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	if err := h.backups.DeleteBackup(c.Param("id")); err != nil {
		h.fail(c, err, "Failed to delete backup")
		return
	}
	c.Status(http.StatusNoContent)
}

// Export downloads the current state as a compressed archive
func (h *Handlers) Export(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	name := fmt.Sprintf("planner-%s.json.zst", time.Now().UTC().Format("20060102T150405Z"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Content-Type", archiveContentType)
	c.Status(http.StatusOK)
	if err := h.backups.Export(ctx, c.Writer); err != nil {
		h.log.WithError(err).Error("Failed to export planner state")
	}
}

// Import replaces the whole planner state with the posted snapshot. Plain JSON
// snapshots and compressed archives are both accepted.
func (h *Handlers) Import(c *gin.Context) {
	if !h.backupsEnabled(c) {
		return
	}
	ctx, cancel := h.requestContext(c)
	defer cancel()

	body := c.Request.Body
	if limit := h.cfg.Backup.MaxImportBytes; limit > 0 {
		body = http.MaxBytesReader(c.Writer, body, limit)
	}
	if err := h.backups.Import(ctx, body); err != nil {
		h.fail(c, err, "Failed to import snapshot")
		return
	}
	utils.SendSuccess(c, gin.H{"imported": true})
}

// ImportCatalog adds the devices and floors of a YAML catalog that are not
// already present
func (h *Handlers) ImportCatalog(c *gin.Context) {
	catalog, err := seed.Parse(io.LimitReader(c.Request.Body, 4<<20))
	if err != nil {
		utils.SendError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := seed.NewImporter(h.planner, planner.IsValidation, h.log).Import(ctx, catalog)
	if err != nil {
		h.fail(c, err, "Failed to import catalog")
		return
	}

	rejected := make([]gin.H, len(res.Rejected))
	for i, r := range res.Rejected {
		rejected[i] = gin.H{"index": r.Index, "name": r.Name, "error": r.Err.Error()}
	}
	utils.SendSuccess(c, gin.H{
		"created":  res.Created,
		"skipped":  res.Skipped,
		"rejected": rejected,
	})
}
