// Package handlers contains the Gin HTTP handlers for the platform
// integration API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annix-labs/fieldflow/internal/application/platform/usecases"
	"github.com/annix-labs/fieldflow/internal/interfaces/http/middleware"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
	"github.com/annix-labs/fieldflow/internal/shared/utils"
)

// PlatformHandler serves the connection management and sync endpoints.
type PlatformHandler struct {
	getOAuthURL *usecases.GetOAuthURLUseCase
	connect     *usecases.ConnectPlatformUseCase
	list        *usecases.ListConnectionsUseCase
	get         *usecases.GetConnectionUseCase
	update      *usecases.UpdateConnectionUseCase
	disconnect  *usecases.DisconnectPlatformUseCase
	sync        *usecases.SyncMeetingsUseCase
	listRecords *usecases.ListRecordsUseCase
	getRecord   *usecases.GetRecordUseCase
	logger      logger.Interface
}

func NewPlatformHandler(
	getOAuthURL *usecases.GetOAuthURLUseCase,
	connect *usecases.ConnectPlatformUseCase,
	list *usecases.ListConnectionsUseCase,
	get *usecases.GetConnectionUseCase,
	update *usecases.UpdateConnectionUseCase,
	disconnect *usecases.DisconnectPlatformUseCase,
	sync *usecases.SyncMeetingsUseCase,
	listRecords *usecases.ListRecordsUseCase,
	getRecord *usecases.GetRecordUseCase,
	log logger.Interface,
) *PlatformHandler {
	return &PlatformHandler{
		getOAuthURL: getOAuthURL,
		connect:     connect,
		list:        list,
		get:         get,
		update:      update,
		disconnect:  disconnect,
		sync:        sync,
		listRecords: listRecords,
		getRecord:   getRecord,
		logger:      log,
	}
}

// GetOAuthURL handles GET /platforms/oauth/:platform/url
func (h *PlatformHandler) GetOAuthURL(c *gin.Context) {
	result, err := h.getOAuthURL.Execute(usecases.GetOAuthURLCommand{
		Platform: c.Param("platform"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "OAuth URL generated", result)
}

type oauthCallbackRequest struct {
	Code  string `json:"code" binding:"required"`
	State string `json:"state"`
}

// OAuthCallback handles POST /platforms/oauth/:platform/callback
func (h *PlatformHandler) OAuthCallback(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req oauthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "code is required")
		return
	}

	result, err := h.connect.Execute(c.Request.Context(), usecases.ConnectPlatformCommand{
		UserID:   userID,
		Platform: c.Param("platform"),
		Code:     req.Code,
		State:    req.State,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.CreatedResponse(c, result, "platform connected")
}

// ListConnections handles GET /platforms/connections
func (h *PlatformHandler) ListConnections(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	result, err := h.list.Execute(c.Request.Context(), usecases.ListConnectionsCommand{UserID: userID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "connections retrieved", result)
}

// GetConnection handles GET /platforms/connections/:id
func (h *PlatformHandler) GetConnection(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	connectionID, err := utils.ParseUintParam(c, "id", "connection")
	if err != nil {
		return
	}

	result, err := h.get.Execute(c.Request.Context(), usecases.GetConnectionCommand{
		UserID:       userID,
		ConnectionID: connectionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "connection retrieved", result)
}

type updateConnectionRequest struct {
	AutoFetchRecordings *bool `json:"auto_fetch_recordings"`
	AutoTranscribe      *bool `json:"auto_transcribe"`
	AutoSendSummary     *bool `json:"auto_send_summary"`
}

// UpdateConnection handles PATCH /platforms/connections/:id
func (h *PlatformHandler) UpdateConnection(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	connectionID, err := utils.ParseUintParam(c, "id", "connection")
	if err != nil {
		return
	}

	var req updateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.update.Execute(c.Request.Context(), usecases.UpdateConnectionCommand{
		UserID:              userID,
		ConnectionID:        connectionID,
		AutoFetchRecordings: req.AutoFetchRecordings,
		AutoTranscribe:      req.AutoTranscribe,
		AutoSendSummary:     req.AutoSendSummary,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "connection updated", result)
}

// Disconnect handles DELETE /platforms/connections/:id
func (h *PlatformHandler) Disconnect(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	connectionID, err := utils.ParseUintParam(c, "id", "connection")
	if err != nil {
		return
	}

	if err := h.disconnect.Execute(c.Request.Context(), usecases.DisconnectPlatformCommand{
		UserID:       userID,
		ConnectionID: connectionID,
	}); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.NoContentResponse(c)
}

type syncRequest struct {
	DaysBack int `json:"days_back"`
}

// SyncConnection handles POST /platforms/connections/:id/sync
func (h *PlatformHandler) SyncConnection(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	connectionID, err := utils.ParseUintParam(c, "id", "connection")
	if err != nil {
		return
	}

	var req syncRequest
	// Body is optional, default lookback applies.
	_ = c.ShouldBindJSON(&req)

	result, err := h.sync.Execute(c.Request.Context(), usecases.SyncMeetingsCommand{
		UserID:       userID,
		ConnectionID: connectionID,
		DaysBack:     req.DaysBack,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "sync completed", result)
}

// ListRecords handles GET /platforms/connections/:id/records
func (h *PlatformHandler) ListRecords(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	connectionID, err := utils.ParseUintParam(c, "id", "connection")
	if err != nil {
		return
	}

	result, err := h.listRecords.Execute(c.Request.Context(), usecases.ListRecordsCommand{
		UserID:       userID,
		ConnectionID: connectionID,
		Limit:        utils.QueryInt(c, "limit", 50),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "records retrieved", result)
}

// GetRecord handles GET /platforms/records/:id
func (h *PlatformHandler) GetRecord(c *gin.Context) {
	userID, ok := middleware.AuthedUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	recordID, err := utils.ParseUintParam(c, "id", "record")
	if err != nil {
		return
	}

	result, err := h.getRecord.Execute(c.Request.Context(), usecases.GetRecordCommand{
		UserID:   userID,
		RecordID: recordID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "record retrieved", result)
}
