package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// handleJustQualified backs the storefront popup: the first call after a
// qualification returns justQualified true, every later call false.
func (s *Server) handleJustQualified(c *gin.Context) {
	customerID, err := strconv.ParseInt(c.Param("customerId"), 10, 64)
	if err != nil || customerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer id"})
		return
	}

	status, err := s.qualSvc.PopupStatus(c.Request.Context(), customerID, time.Now().UTC())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) handleVIPInfo(c *gin.Context) {
	policy := s.policy.Get()
	c.JSON(http.StatusOK, gin.H{
		"minQuantity":     policy.MinQuantity,
		"discountDays":    policy.DiscountDays,
		"discountPercent": policy.DiscountPercent,
		"singleUse":       policy.SingleUse,
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": s.cfg.AppName,
		"version": s.cfg.AppVersion,
		"status":  "running",
	})
}
