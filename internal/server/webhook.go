package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const signatureHeader = "X-Webhook-Signature"

type webhookPayload struct {
	Scope string `json:"scope"`
	Data  struct {
		ID int64 `json:"id"`
	} `json:"data"`
	CreatedAt int64 `json:"created_at"`
}

// handleWebhook accepts order-created events. Duplicates, guest orders, and
// unknown scopes are acknowledged with 200 so the upstream stops redelivery;
// only genuine processing failures return 500 to provoke a retry.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if !s.verifySignature(body, c.GetHeader(signatureHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch strings.TrimSpace(payload.Scope) {
	case "store/order/created", "store/cart/converted":
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	outcome, err := s.qualSvc.ProcessOrderEvent(c.Request.Context(), payload.Scope, payload.Data.ID, payload.CreatedAt)
	if err != nil {
		_ = c.Error(err)
		s.log.Error("webhook processing failed",
			zap.String("scope", payload.Scope),
			zap.Int64("order_id", payload.Data.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(outcome)})
}

// verifySignature checks an HMAC-SHA256 hex digest of the raw body. An empty
// configured secret disables the check.
func (s *Server) verifySignature(body []byte, header string) bool {
	secret := strings.TrimSpace(s.cfg.WebhookSecret)
	if secret == "" {
		return true
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(strings.ToLower(header)), []byte(expected))
}
