package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/models"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/services"
	"github.com/niagahub/niagabot/internal/storage"
	"github.com/niagahub/niagabot/internal/utils"
)

const (
	maxKBUploadBytes = 5 << 20
	sourceURLTTL     = 15 * time.Minute
)

type KBHandler struct {
	retrieval services.RetrievalEngine
	ingest    *services.IngestService
	knowledge pgrepo.KnowledgeRepository
	uploader  storage.Uploader // nil disables raw-source archiving
	signer    storage.Signer   // nil disables signed source reads
	log       *logrus.Logger
}

func NewKBHandler(retrieval services.RetrievalEngine, ingest *services.IngestService, knowledge pgrepo.KnowledgeRepository, uploader storage.Uploader, signer storage.Signer, log *logrus.Logger) *KBHandler {
	if log == nil {
		log = logrus.New()
	}
	return &KBHandler{
		retrieval: retrieval,
		ingest:    ingest,
		knowledge: knowledge,
		uploader:  uploader,
		signer:    signer,
		log:       log,
	}
}

type UpsertItemsRequest struct {
	Items []struct {
		ID      string   `json:"id,omitempty"`
		Title   string   `json:"title"`
		Content string   `json:"content" binding:"required"`
		Tags    []string `json:"tags,omitempty"`
	} `json:"items" binding:"required"`
}

type UpsertItemsResponse struct {
	Upserted int `json:"upserted"`
}

type UploadResponse struct {
	Upserted   int    `json:"upserted"`
	SourcePath string `json:"source_path,omitempty"`
}

func (h *KBHandler) UpsertItems(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	var req UpsertItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KBHandler.UpsertItems", "invalid request body", err))
		return
	}

	items := make([]models.KnowledgeItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.KnowledgeItem{
			ID:      it.ID,
			Title:   it.Title,
			Content: it.Content,
			Tags:    it.Tags,
		})
	}

	n, err := h.retrieval.UpsertKnowledge(c.Request.Context(), tenantID, items)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpsertItemsResponse{Upserted: n})
}

// Upload ingests a plain-text or markdown source: the raw file is archived
// to object storage, then chunked and embedded as knowledge items.
func (h *KBHandler) Upload(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KBHandler.Upload", "missing multipart field 'file'", err))
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".txt" && ext != ".md" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KBHandler.Upload", "only .txt and .md are allowed", nil))
		return
	}
	if fh.Size <= 0 || fh.Size > maxKBUploadBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KBHandler.Upload", "file too large (max 5MB)", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "KBHandler.Upload", "failed to open upload", err))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxKBUploadBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "KBHandler.Upload", "failed to read upload", err))
		return
	}

	var sourcePath string
	if h.uploader != nil {
		objectName := "kb/" + tenantID + "/" + uuid.NewString() + ext
		stored, uerr := h.uploader.Upload(c.Request.Context(), objectName, "text/plain; charset=utf-8", strings.NewReader(string(body)))
		if uerr != nil {
			h.log.WithError(uerr).WithField("tenant_id", tenantID).Warn("raw source archive failed; continuing with ingest")
		} else {
			sourcePath = stored
		}
	}

	title := strings.TrimSuffix(fh.Filename, ext)
	tags := c.PostFormArray("tags")

	items := h.ingest.BuildItems(title, string(body), tags)
	if len(items) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KBHandler.Upload", "file contains no text", nil))
		return
	}

	n, err := h.retrieval.UpsertKnowledge(c.Request.Context(), tenantID, items)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{Upserted: n, SourcePath: sourcePath})
}

// SourceURL returns a short-lived signed link to an archived source file.
// Objects stay private in the bucket; dashboard reads go through here.
func (h *KBHandler) SourceURL(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	if h.signer == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "KBHandler.SourceURL", "object storage not configured", nil))
		return
	}

	path := c.Query("path")
	if path == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "KBHandler.SourceURL", "missing query parameter 'path'", nil))
		return
	}
	if !strings.HasPrefix(path, "kb/"+tenantID+"/") || strings.Contains(path, "..") {
		writeError(c, utils.E(utils.CodeForbidden, "KBHandler.SourceURL", "path outside tenant scope", nil))
		return
	}

	url, err := h.signer.SignedGetURL(c.Request.Context(), path, sourceURLTTL)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "KBHandler.SourceURL", "failed to sign source url", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int(sourceURLTTL.Seconds())})
}

func (h *KBHandler) ListItems(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	items, err := h.knowledge.ListByTenant(c.Request.Context(), tenantID, limit)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "KBHandler.ListItems", "failed to list knowledge items", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *KBHandler) DeleteAll(c *gin.Context) {
	tenantID, ok := requireTenantID(c)
	if !ok {
		return
	}

	if err := h.knowledge.DeleteByTenant(c.Request.Context(), tenantID); err != nil {
		writeError(c, utils.E(utils.CodeInternal, "KBHandler.DeleteAll", "failed to delete knowledge items", err))
		return
	}

	c.Status(http.StatusNoContent)
}
