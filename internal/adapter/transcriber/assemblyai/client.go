// Package assemblyai implements the speech-to-text port against the
// AssemblyAI v2 HTTP API.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/domain"
)

// Client talks to an AssemblyAI-compatible transcription service. Audio bytes
// are forwarded untouched; the codec is opaque to this client.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	pollInitial time.Duration
	pollMax     time.Duration
	timeout     time.Duration
}

// New constructs a Client. pollInitial and pollMax bound the status poll
// cadence; timeout caps one transcription end to end.
func New(baseURL, apiKey string, pollInitial, pollMax, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		pollInitial: pollInitial,
		pollMax:     pollMax,
		timeout:     timeout,
	}
}

type submitRequest struct {
	AudioURL          string  `json:"audio_url"`
	LanguageDetection bool    `json:"language_detection"`
	SentimentAnalysis bool    `json:"sentiment_analysis"`
	EntityDetection   bool    `json:"entity_detection"`
	SpeechThreshold   float64 `json:"speech_threshold"`
	FormatText        bool    `json:"format_text"`
}

type transcriptResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Text             string `json:"text"`
	Error            string `json:"error"`
	SentimentResults []struct {
		Text       string  `json:"text"`
		Sentiment  string  `json:"sentiment"`
		Confidence float64 `json:"confidence"`
	} `json:"sentiment_analysis_results"`
	Entities []struct {
		EntityType string `json:"entity_type"`
		Text       string `json:"text"`
	} `json:"entities"`
}

// Transcribe submits the audio URL and polls until the transcript reaches a
// terminal status.
func (c *Client) Transcribe(ctx domain.Context, audioURL string) (domain.Transcript, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.submit(ctx, audioURL)
	if err != nil {
		observability.TranscriptionsTotal.WithLabelValues("error").Inc()
		return domain.Transcript{}, err
	}

	tr, err := c.poll(ctx, id)
	if err != nil {
		observability.TranscriptionsTotal.WithLabelValues("error").Inc()
		return domain.Transcript{}, err
	}
	observability.TranscriptionsTotal.WithLabelValues("completed").Inc()
	observability.TranscriptionDuration.Observe(time.Since(start).Seconds())
	return tr, nil
}

func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(submitRequest{
		AudioURL:          audioURL,
		LanguageDetection: true,
		SentimentAnalysis: true,
		EntityDetection:   true,
		SpeechThreshold:   0.2,
		FormatText:        true,
	})
	if err != nil {
		return "", fmt.Errorf("op=transcribe.submit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=transcribe.submit: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var resp transcriptResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("op=transcribe.submit: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("op=transcribe.submit: empty transcript id: %w", domain.ErrExternalService)
	}
	return resp.ID, nil
}

func (c *Client) poll(ctx context.Context, id string) (domain.Transcript, error) {
	var out domain.Transcript

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.pollInitial
	bo.MaxInterval = c.pollMax
	bo.MaxElapsedTime = 0 // bounded by ctx

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.apiKey)

		var resp transcriptResponse
		if err := c.do(req, &resp); err != nil {
			return backoff.Permanent(err)
		}
		switch resp.Status {
		case "completed":
			out = mapTranscript(resp)
			return nil
		case "error":
			return backoff.Permanent(fmt.Errorf("transcription failed: %s: %w", resp.Error, domain.ErrExternalService))
		default:
			// queued or processing, keep polling
			return fmt.Errorf("transcript %s not ready (status=%s)", id, resp.Status)
		}
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return domain.Transcript{}, fmt.Errorf("op=transcribe.poll: %w", err)
	}
	return out, nil
}

// UploadAudio streams raw audio bytes to the upload endpoint and returns the
// resulting audio URL.
func (c *Client) UploadAudio(ctx domain.Context, r io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", r)
	if err != nil {
		return "", fmt.Errorf("op=transcribe.upload: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("op=transcribe.upload: %w", err)
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("op=transcribe.upload: empty upload_url: %w", domain.ErrExternalService)
	}
	return resp.UploadURL, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrExternalService)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read body: %v: %w", err, domain.ErrExternalService)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("transcription service returned non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("path", req.URL.Path))
		return fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrExternalService)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %v: %w", err, domain.ErrExternalService)
	}
	return nil
}

func mapTranscript(resp transcriptResponse) domain.Transcript {
	tr := domain.Transcript{Text: resp.Text}
	for _, s := range resp.SentimentResults {
		tr.Sentiments = append(tr.Sentiments, domain.SentimentSegment{
			Text:       s.Text,
			Sentiment:  s.Sentiment,
			Confidence: s.Confidence,
		})
	}
	for _, e := range resp.Entities {
		tr.Entities = append(tr.Entities, domain.Entity{Type: e.EntityType, Text: e.Text})
	}
	return tr
}
