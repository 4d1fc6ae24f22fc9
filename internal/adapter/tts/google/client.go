// Package google implements the speech synthesis port against the Google
// Cloud Text-to-Speech REST API.
package google

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// Client synthesizes speech as MP3 audio at a slightly slowed speaking rate
// suited to reading interview questions aloud.
type Client struct {
	baseURL string
	apiKey  string
	voice   string
	httpc   *http.Client
}

// New constructs a Client for the given endpoint and voice.
func New(baseURL, apiKey, voice string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		voice:   voice,
		httpc: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts text to MP3 bytes.
func (c *Client) Synthesize(ctx domain.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidArgument)
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = "en-US"
	reqBody.Voice.Name = c.voice
	reqBody.AudioConfig.AudioEncoding = "MP3"
	reqBody.AudioConfig.SpeakingRate = 0.9

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("op=tts.synthesize: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/text:synthesize?key="+c.apiKey, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("op=tts.synthesize: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("op=tts.synthesize: %v: %w", err, domain.ErrExternalService)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("op=tts.synthesize: read body: %v: %w", err, domain.ErrExternalService)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("op=tts.synthesize: status %d: %w", resp.StatusCode, domain.ErrExternalService)
	}

	var out synthesizeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("op=tts.synthesize: decode response: %v: %w", err, domain.ErrExternalService)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("op=tts.synthesize: decode audio: %v: %w", err, domain.ErrExternalService)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("op=tts.synthesize: empty audio: %w", domain.ErrExternalService)
	}
	return audio, nil
}
