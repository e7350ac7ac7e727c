package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"Healthchecks/internal/backend/models"
	"Healthchecks/internal/backend/services"
	"Healthchecks/internal/backend/storage"
	"Healthchecks/pkg/uuidutil"

	"github.com/gin-gonic/gin"
)

// CreateCheck stores a new check.
func (h *Handlers) CreateCheck(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create check request", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", "Invalid request body"))
		return
	}

	check, err := req.toCheck()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_ping_url", err.Error()))
		return
	}

	record, err := h.checkService.CreateCheck(c.Request.Context(), check)
	if err != nil {
		h.logger.Error("failed to create check", "error", err, "name", req.Name)
		c.JSON(http.StatusInternalServerError, ErrorResponse("create_failed", "Failed to create check"))
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse("check_created", gin.H{
		"check_id": record.ID,
		"check":    newCheckResponse(record),
	}))
}

// GetCheck returns one check.
func (h *Handlers) GetCheck(c *gin.Context) {
	checkID, ok := h.checkIDParam(c)
	if !ok {
		return
	}

	record, err := h.checkService.GetCheck(c.Request.Context(), checkID)
	if err != nil {
		h.logger.Error("failed to get check", "error", err, "check_id", checkID)
		c.JSON(http.StatusInternalServerError, ErrorResponse("get_failed", "Failed to get check"))
		return
	}

	if record == nil {
		c.JSON(http.StatusNotFound, ErrorResponse("not_found", "Check not found"))
		return
	}

	c.JSON(http.StatusOK, SuccessResponse("check_found", gin.H{
		"check": newCheckResponse(record),
	}))
}

// ListChecks returns a page of checks, optionally filtered by tag.
// Paging bounds are applied by the service and echoed back.
func (h *Handlers) ListChecks(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", err.Error()))
		return
	}

	offset, err := intQuery(c, "offset")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", err.Error()))
		return
	}

	tag := c.Query("tag")

	page, err := h.checkService.ListChecks(c.Request.Context(), models.CheckFilter{
		Tag:    tag,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.logger.Error("failed to list checks", "error", err, "tag", tag, "limit", limit, "offset", offset)
		c.JSON(http.StatusInternalServerError, ErrorResponse("list_failed", "Failed to list checks"))
		return
	}

	c.JSON(http.StatusOK, SuccessResponse("checks_list", gin.H{
		"checks": newCheckResponses(page.Records),
		"count":  len(page.Records),
		"tag":    page.Filter.Tag,
		"limit":  page.Filter.Limit,
		"offset": page.Filter.Offset,
	}))
}

// ReplaceCheck overwrites every field of a check.
func (h *Handlers) ReplaceCheck(c *gin.Context) {
	checkID, ok := h.checkIDParam(c)
	if !ok {
		return
	}

	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid replace check request", "error", err, "check_id", checkID)
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", "Invalid request body"))
		return
	}

	check, err := req.toCheck()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_ping_url", err.Error()))
		return
	}

	record, err := h.checkService.ReplaceCheck(c.Request.Context(), checkID, check)
	if err != nil {
		h.writeUpdateError(c, err, checkID)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse("check_updated", gin.H{
		"check": newCheckResponse(record),
	}))
}

// PatchCheck sets only the fields present in the body.
func (h *Handlers) PatchCheck(c *gin.Context) {
	checkID, ok := h.checkIDParam(c)
	if !ok {
		return
	}

	var req checkPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid patch check request", "error", err, "check_id", checkID)
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_request", "Invalid request body"))
		return
	}

	patch, err := req.toPatch()
	if err != nil {
		code := "invalid_ping_url"
		if errors.Is(err, errClearField) {
			code = "invalid_patch"
		}
		c.JSON(http.StatusBadRequest, ErrorResponse(code, err.Error()))
		return
	}

	record, err := h.checkService.PatchCheck(c.Request.Context(), checkID, patch)
	if err != nil {
		if errors.Is(err, services.ErrEmptyPatch) {
			c.JSON(http.StatusBadRequest, ErrorResponse("invalid_patch", err.Error()))
			return
		}
		h.writeUpdateError(c, err, checkID)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse("check_updated", gin.H{
		"check": newCheckResponse(record),
	}))
}

// DeleteCheck removes a check.
func (h *Handlers) DeleteCheck(c *gin.Context) {
	checkID, ok := h.checkIDParam(c)
	if !ok {
		return
	}

	if err := h.checkService.DeleteCheck(c.Request.Context(), checkID); err != nil {
		if errors.Is(err, storage.ErrCheckNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse("not_found", "Check not found"))
			return
		}
		h.logger.Error("failed to delete check", "error", err, "check_id", checkID)
		c.JSON(http.StatusInternalServerError, ErrorResponse("delete_failed", "Failed to delete check"))
		return
	}

	c.JSON(http.StatusOK, SuccessResponse("check_deleted", gin.H{
		"check_id": checkID,
	}))
}

// GetTagStats returns the number of checks per tag.
func (h *Handlers) GetTagStats(c *gin.Context) {
	stats, err := h.checkService.TagStats(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to get tag stats", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse("stats_failed", "Failed to get tag stats"))
		return
	}

	c.JSON(http.StatusOK, SuccessResponse("tag_stats", gin.H{
		"tags":  stats,
		"count": len(stats),
	}))
}

// intQuery reads an optional integer query parameter; absent means zero.
func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return value, nil
}

func (h *Handlers) checkIDParam(c *gin.Context) (string, bool) {
	checkID := c.Param("id")
	if !uuidutil.IsValid(checkID) {
		c.JSON(http.StatusBadRequest, ErrorResponse("invalid_id", "Check id must be a UUID"))
		return "", false
	}

	return checkID, true
}

func (h *Handlers) writeUpdateError(c *gin.Context, err error, checkID string) {
	if errors.Is(err, storage.ErrCheckNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse("not_found", "Check not found"))
		return
	}

	h.logger.Error("failed to update check", "error", err, "check_id", checkID)
	c.JSON(http.StatusInternalServerError, ErrorResponse("update_failed", "Failed to update check"))
}
