package speech

import "context"

// Provider synthesizes narration audio for one caption segment. The returned
// bytes are a complete audio file ready to write to disk.
type Provider interface {
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}
