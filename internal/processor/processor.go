// internal/processor/processor.go
package processor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/extractor"
	"fms-squat-go/internal/logger"
	"fms-squat-go/internal/types"
)

// ModelInvoker sends a prompt plus media to the vision-language model and
// returns its raw text reply.
type ModelInvoker interface {
	Generate(ctx context.Context, prompt string, media types.Media) (string, error)
	Model() string
}

// Processor runs one squat analysis end to end: prompt, model call, normalization.
type Processor struct {
	model ModelInvoker
	log   *logger.Logger
}

func New(model ModelInvoker, log *logger.Logger) *Processor {
	return &Processor{model: model, log: log.Component("processor")}
}

// Model returns the identifier of the underlying model.
func (p *Processor) Model() string { return p.model.Model() }

// Analyze returns a fully defaulted result, or an *errors.AppError describing
// an upstream, timeout or parse failure.
func (p *Processor) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisResult, error) {
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{
		"mime_type":     req.Media.MimeType,
		"media_len":     len(req.Media.Data),
		"reported_pain": req.ReportedPain,
		"pose_data":     req.PoseMetrics.Present(),
	})
	if req.PoseMetrics.Present() {
		log = log.WithFields(logrus.Fields{
			"min_knee_angle":  deref(req.PoseMetrics.MinKneeAngle),
			"depth_reached":   deref(req.PoseMetrics.DepthReachedBelowParallel),
			"squats_detected": deref(req.PoseMetrics.SquatsDetected),
		})
	}
	log.Info("analysis started")

	prompt := extractor.BuildAnalysisPrompt(req.PoseMetrics, req.ReportedPain)

	raw, err := p.model.Generate(ctx, prompt, req.Media)
	if err != nil {
		log.WithError(err).Warn("model invocation failed")
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			err = apperrors.NewUpstreamError("model call failed", err)
		}
		return nil, err
	}

	result, err := extractor.Normalize(raw, req.PoseMetrics)
	if err != nil {
		log.WithError(err).
			WithField("response_head", apperrors.Truncate(raw, 500)).
			Warn("model response could not be parsed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"score":          result.Score,
		"classification": result.Classification,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("analysis completed")
	return result, nil
}

func deref[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
