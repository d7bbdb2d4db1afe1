package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reelcraft/internal/speech"
	"reelcraft/pkg/httputil"
)

const (
	baseURL        = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultTimeout = 60 * time.Second
)

var _ speech.Provider = (*Client)(nil)

type Client struct {
	apiKey     string
	httpClient *httputil.RetryClient
	baseURL    string
	opts       Options
}

type Options struct {
	VoiceID    string
	Model      string
	Stability  float64
	Similarity float64
	Style      float64
}

type request struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type errorResponse struct {
	Detail struct {
		Message string `json:"message"`
	} `json:"detail"`
}

func NewClient(apiKey string, opts Options) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: httputil.NewRetryClient(
			&http.Client{Timeout: defaultTimeout},
			httputil.DefaultRetryConfig(),
		),
		baseURL: baseURL,
		opts:    opts,
	}
}

func (c *Client) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	reqBody := request{
		Text:    text,
		ModelID: c.opts.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.opts.Stability,
			SimilarityBoost: c.opts.Similarity,
			Style:           c.opts.Style,
			UseSpeakerBoost: true,
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.opts.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Detail.Message != "" {
			return nil, fmt.Errorf("elevenlabs error: %s", errResp.Detail.Message)
		}
		return nil, fmt.Errorf("elevenlabs error: %s", resp.Status)
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("empty response from elevenlabs api")
	}
	return body, nil
}
