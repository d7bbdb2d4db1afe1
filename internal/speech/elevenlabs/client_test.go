package elevenlabs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(serverURL string) *Client {
	c := NewClient("test-key", Options{
		VoiceID:    "voice-1",
		Model:      "eleven_multilingual_v2",
		Stability:  0.35,
		Similarity: 0.8,
		Style:      0.2,
	})
	c.baseURL = serverURL
	return c
}

func TestGenerateSpeechSendsVoiceSettings(t *testing.T) {
	var gotPath, gotKey string
	var gotReq request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		_, _ = w.Write([]byte("fake-mp3-bytes"))
	}))
	defer server.Close()

	audio, err := newTestClient(server.URL).GenerateSpeech(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("generate speech: %v", err)
	}
	if string(audio) != "fake-mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if gotPath != "/voice-1" {
		t.Errorf("path = %q, want /voice-1", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotReq.ModelID != "eleven_multilingual_v2" {
		t.Errorf("model = %q", gotReq.ModelID)
	}
	vs := gotReq.VoiceSettings
	if vs.Stability != 0.35 || vs.SimilarityBoost != 0.8 || vs.Style != 0.2 || !vs.UseSpeakerBoost {
		t.Errorf("voice settings = %+v", vs)
	}
}

func TestGenerateSpeechAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GenerateSpeech(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "elevenlabs error: invalid api key" {
		t.Errorf("error = %q", got)
	}
}

func TestGenerateSpeechEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GenerateSpeech(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for empty audio response")
	}
}
