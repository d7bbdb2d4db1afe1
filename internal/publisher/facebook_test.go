package publisher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeTestVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0644); err != nil {
		t.Fatalf("write test video: %v", err)
	}
	return path
}

func newTestFacebookClient(serverURL string) *FacebookClient {
	c := NewFacebookClient(FacebookOptions{
		PageID:      "page-1",
		AccessToken: "token-1",
	})
	c.baseURL = serverURL
	return c
}

func TestUploadSendsMultipartVideo(t *testing.T) {
	var gotPath, gotDescription, gotToken, gotFile string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotDescription = r.FormValue("description")
		gotToken = r.FormValue("access_token")
		if _, header, err := r.FormFile("source"); err == nil {
			gotFile = header.Filename
		}
		_, _ = w.Write([]byte(`{"id": "media-123"}`))
	}))
	defer server.Close()

	client := newTestFacebookClient(server.URL)
	mediaID, err := client.Upload(context.Background(), writeTestVideo(t), "great video #facts")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if mediaID != "media-123" {
		t.Errorf("media id = %q", mediaID)
	}
	if gotPath != "/page-1/videos" {
		t.Errorf("path = %q, want /page-1/videos", gotPath)
	}
	if gotDescription != "great video #facts" {
		t.Errorf("description = %q", gotDescription)
	}
	if gotToken != "token-1" {
		t.Errorf("access token = %q", gotToken)
	}
	if gotFile != "video.mp4" {
		t.Errorf("file name = %q", gotFile)
	}
}

func TestUploadGraphError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid OAuth access token", "code": 190}}`))
	}))
	defer server.Close()

	client := newTestFacebookClient(server.URL)
	_, err := client.Upload(context.Background(), writeTestVideo(t), "caption")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "graph api error 190: Invalid OAuth access token" {
		t.Errorf("error = %q", got)
	}
}

func TestUploadMissingFile(t *testing.T) {
	client := newTestFacebookClient("http://unused")
	_, err := client.Upload(context.Background(), "/nonexistent/video.mp4", "caption")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestShareToStorySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/media-123":
			_, _ = w.Write([]byte(`{"id": "media-123"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/page-1/video_stories":
			_, _ = w.Write([]byte(`{"post_id": "story-456"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestFacebookClient(server.URL)
	if storyID := client.ShareToStory(context.Background(), "media-123"); storyID != "story-456" {
		t.Errorf("story id = %q, want story-456", storyID)
	}
}

func TestShareToStoryFailureReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"id": "media-123"}`))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "stories not enabled"}}`))
	}))
	defer server.Close()

	client := newTestFacebookClient(server.URL)
	if storyID := client.ShareToStory(context.Background(), "media-123"); storyID != "" {
		t.Errorf("failed share should return empty id, got %q", storyID)
	}
}

func TestShareToStoryMediaNotReady(t *testing.T) {
	var postCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		postCalled = true
	}))
	defer server.Close()

	client := newTestFacebookClient(server.URL)
	if storyID := client.ShareToStory(context.Background(), "media-gone"); storyID != "" {
		t.Errorf("story id = %q, want empty", storyID)
	}
	if postCalled {
		t.Error("story post should be skipped when media lookup fails")
	}
}

func TestConfigured(t *testing.T) {
	if NewFacebookClient(FacebookOptions{}).Configured() {
		t.Error("empty credentials should not be configured")
	}
	if !NewFacebookClient(FacebookOptions{PageID: "p", AccessToken: "t"}).Configured() {
		t.Error("full credentials should be configured")
	}
}
