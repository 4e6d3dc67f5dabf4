package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// cronAuth guards scheduled-job endpoints with a shared bearer secret. An
// unconfigured secret is a deployment fault, not an auth failure, so it maps
// to 500.
func (s *Server) cronAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.CronSecret == "" {
			s.log.Error("cron secret is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
				Error: errorPayload{Type: "internal_error", Message: "cron secret not configured"},
			})
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.CronSecret)) != 1 {
			s.log.Warn("cron request rejected", zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error: errorPayload{Type: "unauthorized", Message: "unauthorized"},
			})
			return
		}

		c.Next()
	}
}
