package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"fms-squat-go/internal/config"
	apperrors "fms-squat-go/internal/errors"
	"fms-squat-go/internal/logger"
	"fms-squat-go/internal/types"
)

// Client calls the Gemini generateContent REST endpoint.
type Client struct {
	cfg             config.ModelConfig
	httpClient      *http.Client
	log             *logger.Logger
	initialInterval time.Duration
}

func NewClient(cfg config.ModelConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:             cfg,
		httpClient:      &http.Client{},
		log:             log.Component("gemini"),
		initialInterval: 500 * time.Millisecond,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Name }

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt and media and returns the model's trimmed text reply.
// Transport errors, 429 and 5xx are retried with exponential backoff; each
// attempt is bounded by the configured timeout. Failures come back as
// *errors.AppError of type upstream or timeout.
func (c *Client) Generate(ctx context.Context, prompt string, media types.Media) (string, error) {
	data, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: media.MimeType, Data: media.Data}},
			},
		}},
	})
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode model request", err)
	}

	log := c.log.WithFields(logrus.Fields{
		"model":       c.cfg.Name,
		"mime_type":   media.MimeType,
		"payload_len": len(data),
	})

	var out string
	var lastErr error
	attempt := 0
	op := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		text, err := c.generateOnce(attemptCtx, data)
		if err != nil {
			lastErr = err
			return err
		}
		out = text
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxElapsedTime = c.cfg.MaxRetryTime
	bo := backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		log.WithField("attempt", attempt).WithField("retry_in", wait.String()).
			WithField("error", err.Error()).Warn("model call failed, retrying")
	}

	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		log.WithField("attempts", attempt).WithField("error", lastErr.Error()).Error("model call failed")
		return "", classify(ctx, lastErr)
	}

	log.WithField("attempts", attempt).WithField("response_len", len(out)).Debug("model call succeeded")
	return out, nil
}

func classify(ctx context.Context, err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("model call timed out", err)
	}
	if ctx.Err() != nil {
		return apperrors.NewUpstreamError("model call cancelled", ctx.Err())
	}
	return apperrors.NewUpstreamError("model call failed", err)
}

func (c *Client) generateOnce(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini response read failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("gemini API error %d: %s", resp.StatusCode, errorMessage(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", err
		}
		// Permanent: don't retry on client errors
		return "", backoff.Permanent(err)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", backoff.Permanent(fmt.Errorf("gemini response decode failed: %w", err))
	}
	return responseText(gr)
}

func responseText(gr generateResponse) (string, error) {
	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", backoff.Permanent(fmt.Errorf("gemini blocked the request: %s", gr.PromptFeedback.BlockReason))
		}
		return "", backoff.Permanent(errors.New("empty response from gemini"))
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		reason := gr.Candidates[0].FinishReason
		if reason == "" {
			reason = "unknown"
		}
		return "", backoff.Permanent(fmt.Errorf("gemini returned no text (finish reason: %s)", reason))
	}
	return text, nil
}

func errorMessage(body []byte) string {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		return ae.Error.Message
	}
	return apperrors.Truncate(strings.TrimSpace(string(body)), 200)
}

// Invoker is implemented by Client and MockClient.
type Invoker interface {
	Generate(ctx context.Context, prompt string, media types.Media) (string, error)
	Model() string
}

// NewInvoker returns the mock model when cfg.UseMock is set, the REST client otherwise.
func NewInvoker(cfg config.ModelConfig, log *logger.Logger) Invoker {
	if cfg.UseMock {
		log.WithField("model", cfg.Name).Warn("using mock model; replies are canned")
		return MockClient{ModelName: cfg.Name}
	}
	return NewClient(cfg, log)
}
