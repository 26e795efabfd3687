package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annix-labs/fieldflow/internal/application/platform/usecases"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
	"github.com/annix-labs/fieldflow/internal/shared/utils"
)

// maxWebhookBody caps how much of a webhook request body is read.
const maxWebhookBody = 1 << 20

// WebhookHandler ingests provider push notifications. Providers retry on
// non-2xx responses, so events we cannot route, verify, or parse are
// acknowledged and logged rather than errored. Retrying cannot fix a bad
// signature or a malformed payload.
type WebhookHandler struct {
	registry   *providers.Registry
	events     *usecases.HandlePlatformEventUseCase
	zoomSigner *crypto.ZoomWebhookSigner
	logger     logger.Interface
}

func NewWebhookHandler(
	registry *providers.Registry,
	events *usecases.HandlePlatformEventUseCase,
	zoomSigner *crypto.ZoomWebhookSigner,
	log logger.Interface,
) *WebhookHandler {
	return &WebhookHandler{
		registry:   registry,
		events:     events,
		zoomSigner: zoomSigner,
		logger:     log,
	}
}

// HandleZoom handles POST /webhooks/zoom
func (h *WebhookHandler) HandleZoom(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	// The URL validation handshake is answered before signature checks;
	// Zoom sends it when the endpoint is first configured.
	if plainToken, ok := zoomValidationToken(body); ok {
		c.JSON(http.StatusOK, gin.H{
			"plainToken":     plainToken,
			"encryptedToken": h.zoomSigner.HashValidationToken(plainToken),
		})
		return
	}

	provider := h.registry.Get(platform.PlatformZoom)
	if provider == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "zoom is not configured")
		return
	}

	if !provider.VerifyWebhookSignature(c.Request.Header, body) {
		h.logger.Warnw("zoom webhook failed signature check, acknowledged without processing",
			"client_ip", c.ClientIP())
		h.acknowledgeInvalid(c, http.StatusOK)
		return
	}

	event, err := provider.ParseWebhookEvent(c.Request.Header, body)
	if err != nil {
		h.logger.Warnw("zoom webhook payload not parsable, acknowledged without processing",
			"error", err)
		h.acknowledgeInvalid(c, http.StatusOK)
		return
	}

	h.dispatch(c, platform.PlatformZoom, event)
}

// HandleTeams handles POST /webhooks/teams
func (h *WebhookHandler) HandleTeams(c *gin.Context) {
	// Graph validates new subscriptions by expecting the token echoed back
	// as plain text.
	if token := c.Query("validationToken"); token != "" {
		c.String(http.StatusOK, token)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	provider := h.registry.Get(platform.PlatformTeams)
	if provider == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "teams is not configured")
		return
	}

	event, err := provider.ParseWebhookEvent(c.Request.Header, body)
	if err != nil {
		h.logger.Warnw("teams webhook payload not parsable, acknowledged without processing",
			"error", err)
		h.acknowledgeInvalid(c, http.StatusAccepted)
		return
	}

	result, err := h.events.Execute(c.Request.Context(), usecases.HandlePlatformEventCommand{
		Platform: platform.PlatformTeams,
		Event:    event,
	})
	if err != nil {
		h.acknowledgeFailure(c, platform.PlatformTeams, err)
		return
	}

	// Graph expects a quick 202 for change notifications.
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "action": result.Action})
}

// HandleGoogleCalendar handles POST /webhooks/google-calendar
func (h *WebhookHandler) HandleGoogleCalendar(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	provider := h.registry.Get(platform.PlatformGoogleMeet)
	if provider == nil {
		utils.ErrorResponse(c, http.StatusNotFound, "google meet is not configured")
		return
	}

	event, err := provider.ParseWebhookEvent(c.Request.Header, body)
	if err != nil {
		h.logger.Warnw("google calendar webhook not parsable, acknowledged without processing",
			"error", err)
		h.acknowledgeInvalid(c, http.StatusOK)
		return
	}

	if event.Type == providers.EventEndpointValidation {
		c.JSON(http.StatusOK, gin.H{"status": "sync acknowledged"})
		return
	}

	h.dispatch(c, platform.PlatformGoogleMeet, event)
}

// dispatch runs the event use case and maps its outcome to an
// acknowledgement the provider will not retry.
func (h *WebhookHandler) dispatch(c *gin.Context, p platform.Platform, event *providers.WebhookEvent) {
	result, err := h.events.Execute(c.Request.Context(), usecases.HandlePlatformEventCommand{
		Platform: p,
		Event:    event,
	})
	if err != nil {
		h.acknowledgeFailure(c, p, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result.Action})
}

// acknowledgeInvalid answers success for requests that fail the signature
// or payload checks. The caller logs the failure first; the transport sees
// a 2xx so the provider does not keep redelivering a request that can
// never succeed.
func (h *WebhookHandler) acknowledgeInvalid(c *gin.Context, statusCode int) {
	c.JSON(statusCode, gin.H{"status": "ignored"})
}

// acknowledgeFailure answers 200 for events we cannot route so the
// provider stops retrying; genuine server faults still surface as 500.
func (h *WebhookHandler) acknowledgeFailure(c *gin.Context, p platform.Platform, err error) {
	var appErr *errors.AppError
	clientFault := stderrors.As(err, &appErr) && appErr.Code < http.StatusInternalServerError
	if clientFault {
		h.logger.Warnw("webhook event not routable, acknowledged",
			"platform", p, "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	h.logger.Errorw("webhook event processing failed",
		"platform", p, "error", err)
	utils.ErrorResponse(c, http.StatusInternalServerError, "failed to process webhook event")
}

// zoomValidationToken extracts the plainToken of a URL validation request.
func zoomValidationToken(body []byte) (string, bool) {
	var envelope struct {
		Event   string `json:"event"`
		Payload struct {
			PlainToken string `json:"plainToken"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	if envelope.Event != "endpoint.url_validation" || envelope.Payload.PlainToken == "" {
		return "", false
	}
	return envelope.Payload.PlainToken, true
}
