package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fms-squat-go/internal/config"
	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/logger"
	"fms-squat-go/internal/types"
)

const (
	ServiceName    = "fms_squat_analysis"
	ServiceVersion = "1.2.0"

	frameNote = "Analysis based on single frame - video analysis recommended"
)

var features = []string{
	"pose_detection_integration",
	"skeleton_overlay_detection",
	"multi_angle_support",
	"pain_reporting",
	"sensor_data_fusion",
}

// Analyzer is the analysis pipeline behind the HTTP surface.
type Analyzer interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error)
	Model() string
}

// AnalyzeRequest is the JSON body of /analyze and /analyze-frame.
type AnalyzeRequest struct {
	Video        string             `json:"video"`
	Image        string             `json:"image"`
	MimeType     string             `json:"mime_type"`
	ReportedPain bool               `json:"reported_pain"`
	PoseMetrics  *types.PoseMetrics `json:"pose_detection_data"`
}

type AnalyzeResponse struct {
	Success   bool                  `json:"success"`
	Timestamp string                `json:"timestamp"`
	Result    *types.AnalysisResult `json:"result"`
	Note      string                `json:"note,omitempty"`
}

type ErrorResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	ErrorType   string `json:"error_type"`
	RawResponse string `json:"raw_response,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// mediaEndpoint describes how one analyze route reads its media field.
type mediaEndpoint struct {
	field       string
	defaultMime string
	note        string
	media       func(AnalyzeRequest) string
}

var (
	videoEndpoint = mediaEndpoint{
		field:       "video",
		defaultMime: "video/mp4",
		media:       func(r AnalyzeRequest) string { return r.Video },
	}
	frameEndpoint = mediaEndpoint{
		field:       "image",
		defaultMime: "image/jpeg",
		note:        frameNote,
		media:       func(r AnalyzeRequest) string { return r.Image },
	}
)

func NewHandler(cfg *config.Config, a Analyzer, log *logger.Logger) http.Handler {
	r := gin.New()

	httpLog := log.Component("http")
	r.Use(
		requestLogger(httpLog),
		recovery(),
		corsMiddleware(cfg.CORSAllowedOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/", apiInfo)
	r.GET("/health", healthCheck(a.Model()))
	r.POST("/analyze", analyze(a, videoEndpoint))
	r.POST("/analyze-frame", analyze(a, frameEndpoint))

	return r
}

func analyze(a Analyzer, ep mediaEndpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := requestLog(c)

		var body AnalyzeRequest
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, bindError(err))
			return
		}

		data := strings.TrimSpace(ep.media(body))
		if data == "" {
			respondError(c, apperrors.NewValidationError(ep.field+" (base64) is required", nil))
			return
		}
		mimeType := strings.TrimSpace(body.MimeType)
		if mimeType == "" {
			mimeType = ep.defaultMime
		}

		log.WithFields(logrus.Fields{
			"mime_type":     mimeType,
			"media_len":     len(data),
			"reported_pain": body.ReportedPain,
			"pose_data":     body.PoseMetrics.Present(),
		}).Info("analyze request received")

		result, err := a.Analyze(c.Request.Context(), types.AnalysisRequest{
			Media:        types.Media{Data: data, MimeType: mimeType},
			ReportedPain: body.ReportedPain,
			PoseMetrics:  body.PoseMetrics,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, AnalyzeResponse{
			Success:   true,
			Timestamp: timestamp(),
			Result:    result,
			Note:      ep.note,
		})
	}
}

func bindError(err error) *apperrors.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		appErr := apperrors.NewValidationError("request body too large", err)
		appErr.StatusCode = http.StatusRequestEntityTooLarge
		return appErr
	}
	return apperrors.NewValidationError("invalid JSON body: "+err.Error(), err)
}

func healthCheck(model string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"model":     model,
			"service":   ServiceName,
			"timestamp": timestamp(),
			"version":   ServiceVersion,
			"features":  features,
		})
	}
}

func apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "FMS Squat Analysis API",
		"version": ServiceVersion,
		"endpoints": gin.H{
			"GET /health":         "Health check and service info",
			"POST /analyze":       "Analyze squat video with optional pose detection data",
			"POST /analyze-frame": "Analyze single image frame",
		},
		"features": gin.H{
			"pose_detection_integration": "Send pose detection metrics alongside video",
			"sensor_data_fusion":         "Knee angle data is treated as ground truth for depth",
			"visual_analysis_focus":      "Visual review covers torso, heels, knee valgus, arms and balance",
		},
		"documentation": gin.H{
			"video_format": "MP4 recommended, base64 encoded",
			"pose_data":    "Include pose_detection_data object with knee angles and depth info",
			"camera_angle": "Side/profile view recommended",
		},
	})
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)

	requestLog(c).WithError(err).WithFields(logrus.Fields{
		"status_code": appErr.StatusCode,
		"error_type":  appErr.Type,
	}).Warn("analysis failed")

	c.AbortWithStatusJSON(appErr.StatusCode, ErrorResponse{
		Success:     false,
		Error:       appErr.ClientMessage(),
		ErrorType:   string(appErr.Type),
		RawResponse: appErr.RawResponse,
		Timestamp:   timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
