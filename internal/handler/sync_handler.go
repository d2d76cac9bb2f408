package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-ops-api/internal/dto"
	"github.com/noah-isme/edu-ops-api/internal/models"
	"github.com/noah-isme/edu-ops-api/pkg/response"
)

type sheetSyncService interface {
	Run(ctx context.Context) (*models.SyncResult, error)
	Status() dto.SyncStatusResponse
}

// SyncHandler triggers and reports the spreadsheet inbox import.
type SyncHandler struct {
	service sheetSyncService
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(svc sheetSyncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// Run godoc
// @Summary Import pending rows from the spreadsheet inbox now
// @Tags Google Sheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /google-sheets/sync [post]
func (h *SyncHandler) Run(c *gin.Context) {
	result, err := h.service.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Spreadsheet sync status and last run
// @Tags Google Sheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /google-sheets/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Status(), nil)
}
