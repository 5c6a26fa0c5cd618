package processor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/extractor"
	"fms-squat-go/internal/logger"
	"fms-squat-go/internal/types"
)

type fakeInvoker struct {
	reply  string
	err    error
	prompt string
	media  types.Media
	calls  int
}

func (f *fakeInvoker) Model() string { return "fake-model" }

func (f *fakeInvoker) Generate(_ context.Context, prompt string, media types.Media) (string, error) {
	f.calls++
	f.prompt = prompt
	f.media = media
	return f.reply, f.err
}

func newTestProcessor(inv ModelInvoker) *Processor {
	return New(inv, logger.NewWithOutput(io.Discard))
}

func TestAnalyzeSuccess(t *testing.T) {
	inv := &fakeInvoker{reply: "```json\n{\"score\": 3, \"classification\": \"Optimal\", \"summary\": \"Clean rep\"}\n```"}
	p := newTestProcessor(inv)

	angle := 72.5
	req := types.AnalysisRequest{
		Media:       types.Media{Data: "QUJD", MimeType: "video/mp4"},
		PoseMetrics: &types.PoseMetrics{MinKneeAngle: &angle},
	}

	result, err := p.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, req.Media, inv.media)
	assert.Contains(t, inv.prompt, "72.5")
	assert.Equal(t, 3, result.Score)
	assert.Equal(t, types.Optimal, result.Classification)
	assert.Equal(t, "Clean rep", result.Summary)
	require.NotNil(t, result.PoseDetectionSummary)
	assert.Equal(t, &angle, result.PoseDetectionSummary.MinKneeAngle)
	assert.Equal(t, "fake-model", p.Model())
}

func TestAnalyzePainFlagReachesPrompt(t *testing.T) {
	inv := &fakeInvoker{reply: `{"score": 0, "classification": "Pain"}`}
	p := newTestProcessor(inv)

	result, err := p.Analyze(context.Background(), types.AnalysisRequest{
		Media:        types.Media{Data: "QUJD", MimeType: "image/jpeg"},
		ReportedPain: true,
	})
	require.NoError(t, err)

	assert.Contains(t, inv.prompt, extractor.PainOverride)
	assert.Equal(t, 0, result.Score)
	assert.Nil(t, result.PoseDetectionSummary)
}

func TestAnalyzeParseFailure(t *testing.T) {
	raw := `{"score": 2, "classification": "Comp`
	p := newTestProcessor(&fakeInvoker{reply: raw})

	_, err := p.Analyze(context.Background(), types.AnalysisRequest{})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeParse, appErr.Type)
	assert.Equal(t, raw, appErr.RawResponse)
}

func TestAnalyzeInvokerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   apperrors.ErrorType
		wantStatus int
	}{
		{"plain error wrapped as upstream", errors.New("connection reset"), apperrors.ErrorTypeUpstream, http.StatusInternalServerError},
		{"timeout passed through", apperrors.NewTimeoutError("model call timed out", context.DeadlineExceeded), apperrors.ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"upstream passed through", apperrors.NewUpstreamError("model call failed", errors.New("quota exceeded")), apperrors.ErrorTypeUpstream, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(&fakeInvoker{err: tt.err})

			result, err := p.Analyze(context.Background(), types.AnalysisRequest{})
			require.Error(t, err)
			assert.Nil(t, result)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Equal(t, tt.wantStatus, apperrors.GetStatusCode(err))
		})
	}
}

func TestAnalyzeNeverLogsMedia(t *testing.T) {
	var buf strings.Builder
	p := New(&fakeInvoker{reply: `{"score": 2}`}, logger.NewWithOutput(&buf))

	secret := strings.Repeat("Zm9v", 50)
	_, err := p.Analyze(context.Background(), types.AnalysisRequest{
		Media: types.Media{Data: secret, MimeType: "video/mp4"},
	})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), secret)
	assert.Contains(t, buf.String(), "analysis completed")
}

func TestScreen(t *testing.T) {
	inv := &fakeInvoker{reply: `{"score": 3, "classification": "Optimal"}`}
	p := newTestProcessor(inv)

	records := []types.ManifestRecord{
		{Row: 2, MediaPath: "a.mp4"},
		{Row: 3, MediaPath: "missing.mp4"},
		{Row: 4, MediaPath: "b.jpg", ReportedPain: true},
	}
	load := func(rec types.ManifestRecord) (types.Media, error) {
		if rec.MediaPath == "missing.mp4" {
			return types.Media{}, errors.New("read media: no such file")
		}
		return types.Media{Data: "QUJD", MimeType: "video/mp4"}, nil
	}

	out := p.Screen(context.Background(), records, load)

	require.Len(t, out, 3)
	assert.Equal(t, 2, inv.calls)
	assert.Equal(t, 3, out[0].Result.Score)
	assert.Empty(t, out[0].Error)
	assert.Nil(t, out[1].Result)
	assert.Equal(t, "read media: no such file", out[1].Error)
	assert.Equal(t, 4, out[2].Row)
	assert.Contains(t, inv.prompt, extractor.PainOverride)
}

func TestScreenRecordsAppErrors(t *testing.T) {
	p := newTestProcessor(&fakeInvoker{reply: "not json at all"})

	out := p.Screen(context.Background(), []types.ManifestRecord{{Row: 2}}, func(types.ManifestRecord) (types.Media, error) {
		return types.Media{Data: "QUJD"}, nil
	})

	require.Len(t, out, 1)
	assert.Equal(t, "parse: Failed to parse AI response as JSON", out[0].Error)
}

func TestScreenStopsOnCancel(t *testing.T) {
	inv := &fakeInvoker{reply: `{"score": 2}`}
	p := newTestProcessor(inv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := p.Screen(ctx, []types.ManifestRecord{{Row: 2}, {Row: 3}}, func(types.ManifestRecord) (types.Media, error) {
		return types.Media{}, nil
	})

	assert.Empty(t, out)
	assert.Zero(t, inv.calls)
}
