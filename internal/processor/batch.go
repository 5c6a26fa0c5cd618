package processor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/types"
)

// MediaLoader resolves a manifest row to the media sent to the model.
type MediaLoader func(types.ManifestRecord) (types.Media, error)

// Screen analyzes manifest rows one at a time. A failed row is recorded and
// the batch moves on; only context cancellation stops it early.
func (p *Processor) Screen(ctx context.Context, records []types.ManifestRecord, load MediaLoader) []types.ScreenedRecord {
	out := make([]types.ScreenedRecord, 0, len(records))
	for i, rec := range records {
		if ctx.Err() != nil {
			p.log.WithField("remaining", len(records)-i).Warn("batch cancelled")
			break
		}

		start := time.Now()
		screened := types.ScreenedRecord{ManifestRecord: rec}
		log := p.log.WithFields(logrus.Fields{"row": rec.Row, "media": rec.MediaPath})

		media, err := load(rec)
		if err == nil {
			screened.Result, err = p.Analyze(ctx, types.AnalysisRequest{
				Media:        media,
				ReportedPain: rec.ReportedPain,
				PoseMetrics:  rec.PoseMetrics,
			})
		}
		screened.DurationMs = time.Since(start).Milliseconds()
		if err != nil {
			screened.Error = errorText(err)
			log.WithError(err).Warn("row failed")
		}
		out = append(out, screened)
	}
	return out
}

func errorText(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return string(appErr.Type) + ": " + appErr.ClientMessage()
	}
	return err.Error()
}
