package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"reelcraft/pkg/httputil"
)

const (
	graphBaseURL = "https://graph.facebook.com/v18.0"

	defaultUploadTimeout = 120 * time.Second
	defaultStoryTimeout  = 30 * time.Second
)

// FacebookClient publishes rendered videos to a Facebook page through the
// Graph API. Story sharing is best-effort: a failed story never fails the
// publish that preceded it.
type FacebookClient struct {
	pageID        string
	accessToken   string
	uploadClient  *httputil.RetryClient
	storyClient   *httputil.RetryClient
	baseURL       string
	uploadTimeout time.Duration
	storyTimeout  time.Duration
}

type FacebookOptions struct {
	PageID        string
	AccessToken   string
	UploadTimeout time.Duration
	StoryTimeout  time.Duration
}

type uploadResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func NewFacebookClient(opts FacebookOptions) *FacebookClient {
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout == 0 {
		uploadTimeout = defaultUploadTimeout
	}
	storyTimeout := opts.StoryTimeout
	if storyTimeout == 0 {
		storyTimeout = defaultStoryTimeout
	}
	return &FacebookClient{
		pageID:      opts.PageID,
		accessToken: opts.AccessToken,
		uploadClient: httputil.NewRetryClient(
			&http.Client{Timeout: uploadTimeout},
			httputil.DefaultRetryConfig(),
		),
		storyClient: httputil.NewRetryClient(
			&http.Client{Timeout: storyTimeout},
			httputil.DefaultRetryConfig(),
		),
		baseURL:       graphBaseURL,
		uploadTimeout: uploadTimeout,
		storyTimeout:  storyTimeout,
	}
}

// Configured reports whether page credentials are present. Callers check
// this before queueing publish work so misconfiguration fails fast.
func (c *FacebookClient) Configured() bool {
	return c.pageID != "" && c.accessToken != ""
}

// Upload posts the video file to the page feed and returns the platform
// media id.
func (c *FacebookClient) Upload(ctx context.Context, videoPath, description string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer func() { _ = file.Close() }()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	_ = writer.WriteField("description", description)
	_ = writer.WriteField("access_token", c.accessToken)

	part, err := writer.CreateFormFile("source", filepath.Base(videoPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/videos", c.baseURL, c.pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	body := buf.Bytes()
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		if parsed.Error != nil {
			return "", fmt.Errorf("graph api error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("graph api error: %s", resp.Status)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("graph api returned no media id")
	}
	return parsed.ID, nil
}

// ShareToStory republishes an uploaded video as a page story. Failures are
// logged and swallowed; the returned story id is empty when sharing did not
// happen.
func (c *FacebookClient) ShareToStory(ctx context.Context, mediaID string) string {
	if !c.mediaReady(ctx, mediaID) {
		slog.Warn("media not ready for story share", "media_id", mediaID)
		return ""
	}

	url := fmt.Sprintf("%s/%s/video_stories", c.baseURL, c.pageID)
	payload := map[string]string{
		"video_id":     mediaID,
		"upload_phase": "finish",
		"access_token": c.accessToken,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("story share failed", "media_id", mediaID, "error", err)
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		slog.Warn("story share failed", "media_id", mediaID, "error", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	resp, err := c.storyClient.Do(req)
	if err != nil {
		slog.Warn("story share failed", "media_id", mediaID, "error", err)
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	var parsed struct {
		PostID string `json:"post_id"`
		ID     string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || resp.StatusCode != http.StatusOK {
		slog.Warn("story share rejected", "media_id", mediaID, "status", resp.Status)
		return ""
	}
	if parsed.PostID != "" {
		return parsed.PostID
	}
	return parsed.ID
}

// mediaReady checks the uploaded video exists before the story attempt.
func (c *FacebookClient) mediaReady(ctx context.Context, mediaID string) bool {
	url := fmt.Sprintf("%s/%s?access_token=%s", c.baseURL, mediaID, c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.storyClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}
