package handler

import (
	"encoding/base64"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AsaTyr2018/VisionSuit-sub004/internal/service"
	"github.com/AsaTyr2018/VisionSuit-sub004/pkg/response"
)

// ScreeningHandler handles HTTP requests for content screening
type ScreeningHandler struct {
	service *service.ScreeningService
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(service *service.ScreeningService) *ScreeningHandler {
	return &ScreeningHandler{service: service}
}

// ScreenImageRequest represents the request body for screening an asset
// with an image payload
type ScreenImageRequest struct {
	AssetID     string                 `json:"asset_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Prompt      string                 `json:"prompt"`
	Tags        []string               `json:"tags"`
	Metadata    map[string]interface{} `json:"metadata"`
	Image       string                 `json:"image" binding:"required"` // base64-encoded
}

// ScreenImage screens an uploaded image together with its metadata
// POST /api/v1/screening/images
func (h *ScreeningHandler) ScreenImage(c *gin.Context) {
	var req ScreenImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		response.BadRequest(c, "Image must be base64-encoded")
		return
	}
	if len(image) == 0 {
		response.BadRequest(c, "Image payload is empty")
		return
	}

	record, err := h.service.ScreenAsset(c.Request.Context(), service.ScreenAssetInput{
		AssetID:     req.AssetID,
		Title:       req.Title,
		Description: req.Description,
		Prompt:      req.Prompt,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
		Image:       image,
	})
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, record)
}

// ScreenMetadataRequest represents the request body for metadata-only
// screening
type ScreenMetadataRequest struct {
	AssetID     string                 `json:"asset_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Prompt      string                 `json:"prompt"`
	Tags        []string               `json:"tags"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// ScreenMetadata screens an asset that has no image payload
// POST /api/v1/screening/metadata
func (h *ScreeningHandler) ScreenMetadata(c *gin.Context) {
	var req ScreenMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	record, err := h.service.EvaluateMetadataOnly(c.Request.Context(), service.ScreenAssetInput{
		AssetID:     req.AssetID,
		Title:       req.Title,
		Description: req.Description,
		Prompt:      req.Prompt,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
	})
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, record)
}

// GetDecision retrieves the screening decision for an asset
// GET /api/v1/moderation/decisions/:assetId
func (h *ScreeningHandler) GetDecision(c *gin.Context) {
	assetID := c.Param("assetId")
	if assetID == "" {
		response.BadRequest(c, "Asset ID is required")
		return
	}

	record, err := h.service.GetRecord(assetID)
	if err != nil {
		response.NotFound(c, err.Error())
		return
	}

	response.Success(c, record)
}

// ListFlagged lists assets held for moderation
// GET /api/v1/admin/moderation/flagged
func (h *ScreeningHandler) ListFlagged(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		response.BadRequest(c, "Invalid limit")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		response.BadRequest(c, "Invalid offset")
		return
	}

	records, err := h.service.ListFlagged(limit, offset)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, records)
}

// SetStatusRequest represents a moderator's verdict on a held asset
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus records a moderator's verdict
// PUT /api/v1/admin/moderation/decisions/:assetId/status
func (h *ScreeningHandler) SetStatus(c *gin.Context) {
	assetID := c.Param("assetId")
	if assetID == "" {
		response.BadRequest(c, "Asset ID is required")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.service.SetStatus(assetID, req.Status); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"asset_id": assetID, "status": req.Status})
}
