package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Secret names looked up in Secret Manager when the matching env var is
// empty and GOOGLE_CLOUD_PROJECT is set.
const (
	secretGroqAPIKey        = "groq-api-key"
	secretElevenLabsAPIKey  = "elevenlabs-api-key"
	secretFacebookPageToken = "facebook-page-token"
)

func loadSecretFallbacks(cfg *Config) {
	if cfg.GoogleCloudProject == "" {
		return
	}
	missing := cfg.GroqAPIKey == "" || cfg.ElevenLabsAPIKey == "" || cfg.FacebookPageToken == ""
	if !missing {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		slog.Warn("Secret Manager unavailable, using env credentials only", "error", err)
		return
	}
	defer client.Close()

	if cfg.GroqAPIKey == "" {
		cfg.GroqAPIKey = fetchSecret(ctx, client, cfg.GoogleCloudProject, secretGroqAPIKey)
	}
	if cfg.ElevenLabsAPIKey == "" {
		cfg.ElevenLabsAPIKey = fetchSecret(ctx, client, cfg.GoogleCloudProject, secretElevenLabsAPIKey)
	}
	if cfg.FacebookPageToken == "" {
		cfg.FacebookPageToken = fetchSecret(ctx, client, cfg.GoogleCloudProject, secretFacebookPageToken)
	}
}

func fetchSecret(ctx context.Context, client *secretmanager.Client, project, name string) string {
	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name),
	})
	if err != nil {
		slog.Warn("Secret not found", "secret", name, "error", err)
		return ""
	}
	return string(resp.Payload.Data)
}
