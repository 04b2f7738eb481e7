package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// webhookEvent handles POST /internal/mcp-event: an inbound webhook
// that republishes an external event onto the bus after verifying the
// shared secret in constant time.
func (h *handlers) webhookEvent(c *gin.Context) {
	secret := h.deps.Config.WebhookSecret
	provided := c.GetHeader("X-Webhook-Secret")
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var req webhookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.deps.Bus.Publish(c.Request.Context(), req.EventType, req.Payload, req.SourceApp)
	c.Status(http.StatusAccepted)
}
