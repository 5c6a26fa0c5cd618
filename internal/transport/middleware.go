package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/logger"
)

const requestLogKey = "request_log"

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", logger.RequestIDHeader},
		ExposeHeaders: []string{logger.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

// requestLogger assigns the request id and emits one line per request.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := logger.RequestID(c.Request)
		c.Request.Header.Set(logger.RequestIDHeader, id)
		c.Header(logger.RequestIDHeader, id)

		entry := log.WithRequest(c.Request)
		c.Set(requestLogKey, entry)

		c.Next()

		entry = entry.WithFields(logrus.Fields{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"bytes_out":   c.Writer.Size(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// recovery converts panics into the standard failure payload.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := apperrors.NewInternalError("internal server error", fmt.Errorf("panic: %v", recovered))
		requestLog(c).WithField("panic", fmt.Sprint(recovered)).Error("handler panicked")
		respondError(c, err)
	})
}

func requestLog(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(requestLogKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
