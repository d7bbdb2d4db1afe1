package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath   = "config.yaml"
	defaultDatabasePath = "./data/reelcraft.db"
	defaultOutputDir    = "./output"
	defaultLogPath      = "./video_generation.log"

	defaultGroqModel        = "llama-3.3-70b-versatile"
	defaultGroqSystemPrompt = "You are a viral short-form video scriptwriter. Every script needs a scroll-stopping hook, four surprising facts, and a payoff that earns the follow. Respond with a JSON array of scripts."

	defaultVoiceID        = "21m00Tcm4TlvDq8ikWAM"
	defaultSpeechModel    = "eleven_multilingual_v2"
	defaultStability      = 0.35
	defaultSimilarity     = 0.8
	defaultStyle          = 0.2

	defaultResolution = "1080x1920"
	defaultFrameRate  = 30
	defaultWrapWidth  = 24

	defaultSubtitleFont = "Montserrat Black"
	defaultSubtitleSize = 64
	defaultPrimaryColor = "#FFFFFF"
	defaultOutlineColor = "#000000"
	defaultOutlineSize  = 4
	defaultShadowSize   = 2

	defaultScriptPoll    = 30 * time.Second
	defaultQueueInterval = 3 * time.Hour
	defaultVideoPoll     = 30 * time.Second
	defaultPostingPoll   = 60 * time.Second
	defaultScriptBatch   = 3
	defaultVideoBatch    = 2

	defaultRenderTimeout = 30 * time.Second
	defaultConcatTimeout = 60 * time.Second
	defaultUploadTimeout = 120 * time.Second
	defaultStoryTimeout  = 30 * time.Second
)

type Config struct {
	GroqAPIKey         string
	ElevenLabsAPIKey   string
	FacebookPageToken  string
	FacebookPageID     string
	FacebookAppID      string
	FacebookAppSecret  string
	GCSBucket          string
	GoogleCloudProject string
	DatabasePath       string
	LogPath            string

	Groq      GroqConfig      `yaml:"groq"`
	Speech    SpeechConfig    `yaml:"speech"`
	Video     VideoConfig     `yaml:"video"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Publisher PublisherConfig `yaml:"publisher"`
	GCS       GCSConfig       `yaml:"gcs"`
}

// Duration lets yaml configs write durations as "30s" or "3h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type GroqConfig struct {
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
}

type SpeechConfig struct {
	Enabled    bool    `yaml:"enabled"`
	VoiceID    string  `yaml:"voice_id"`
	Model      string  `yaml:"model"`
	Stability  float64 `yaml:"stability"`
	Similarity float64 `yaml:"similarity"`
	Style      float64 `yaml:"style"`
}

type VideoConfig struct {
	OutputDir     string   `yaml:"output_dir"`
	Resolution    string   `yaml:"resolution"`
	FrameRate     int      `yaml:"frame_rate"`
	RenderTimeout Duration `yaml:"render_timeout"`
	ConcatTimeout Duration `yaml:"concat_timeout"`
}

type SubtitlesConfig struct {
	FontName     string `yaml:"font_name"`
	FontSize     int    `yaml:"font_size"`
	PrimaryColor string `yaml:"primary_color"`
	OutlineColor string `yaml:"outline_color"`
	OutlineSize  int    `yaml:"outline_size"`
	ShadowSize   int    `yaml:"shadow_size"`
	WrapWidth    int    `yaml:"wrap_width"`
}

type SchedulerConfig struct {
	ScriptPoll    Duration `yaml:"script_poll"`
	QueueInterval Duration `yaml:"queue_interval"`
	VideoPoll     Duration `yaml:"video_poll"`
	PostingPoll   Duration `yaml:"posting_poll"`
	ScriptBatch   int      `yaml:"script_batch"`
	VideoBatch    int      `yaml:"video_batch"`
}

type PublisherConfig struct {
	PostImmediately bool     `yaml:"post_immediately"`
	ShareToStory    bool     `yaml:"share_to_story"`
	UploadTimeout   Duration `yaml:"upload_timeout"`
	StoryTimeout    Duration `yaml:"story_timeout"`
}

type GCSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ArchiveDir string `yaml:"archive_dir"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		ElevenLabsAPIKey:   os.Getenv("ELEVENLABS_API_KEY"),
		FacebookPageToken:  os.Getenv("FACEBOOK_PAGE_TOKEN"),
		FacebookPageID:     os.Getenv("FACEBOOK_PAGE_ID"),
		FacebookAppID:      os.Getenv("FACEBOOK_APP_ID"),
		FacebookAppSecret:  os.Getenv("FACEBOOK_APP_SECRET"),
		GCSBucket:          os.Getenv("GCS_BUCKET"),
		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		LogPath:            getEnvOrDefault("LOG_PATH", defaultLogPath),
	}

	loadYAMLConfig(cfg)
	loadSecretFallbacks(cfg)
	applyDefaults(cfg)

	return cfg
}

func loadYAMLConfig(cfg *Config) {
	path := getEnvOrDefault("CONFIG_PATH", defaultConfigPath)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyDefaults(cfg *Config) {
	applyGroqDefaults(cfg)
	applySpeechDefaults(cfg)
	applyVideoDefaults(cfg)
	applySubtitlesDefaults(cfg)
	applySchedulerDefaults(cfg)
	applyPublisherDefaults(cfg)
}

func applyGroqDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.Groq.SystemPrompt == "" {
		cfg.Groq.SystemPrompt = defaultGroqSystemPrompt
	}
}

func applySpeechDefaults(cfg *Config) {
	if cfg.Speech.VoiceID == "" {
		cfg.Speech.VoiceID = defaultVoiceID
	}
	if cfg.Speech.Model == "" {
		cfg.Speech.Model = defaultSpeechModel
	}
	if cfg.Speech.Stability == 0 {
		cfg.Speech.Stability = defaultStability
	}
	if cfg.Speech.Similarity == 0 {
		cfg.Speech.Similarity = defaultSimilarity
	}
	if cfg.Speech.Style == 0 {
		cfg.Speech.Style = defaultStyle
	}
}

func applyVideoDefaults(cfg *Config) {
	if cfg.Video.OutputDir == "" {
		cfg.Video.OutputDir = defaultOutputDir
	}
	if cfg.Video.Resolution == "" {
		cfg.Video.Resolution = defaultResolution
	}
	if cfg.Video.FrameRate == 0 {
		cfg.Video.FrameRate = defaultFrameRate
	}
	if cfg.Video.RenderTimeout == 0 {
		cfg.Video.RenderTimeout = Duration(defaultRenderTimeout)
	}
	if cfg.Video.ConcatTimeout == 0 {
		cfg.Video.ConcatTimeout = Duration(defaultConcatTimeout)
	}
}

func applySubtitlesDefaults(cfg *Config) {
	if cfg.Subtitles.FontName == "" {
		cfg.Subtitles.FontName = defaultSubtitleFont
	}
	if cfg.Subtitles.FontSize == 0 {
		cfg.Subtitles.FontSize = defaultSubtitleSize
	}
	if cfg.Subtitles.PrimaryColor == "" {
		cfg.Subtitles.PrimaryColor = defaultPrimaryColor
	}
	if cfg.Subtitles.OutlineColor == "" {
		cfg.Subtitles.OutlineColor = defaultOutlineColor
	}
	if cfg.Subtitles.OutlineSize == 0 {
		cfg.Subtitles.OutlineSize = defaultOutlineSize
	}
	if cfg.Subtitles.ShadowSize == 0 {
		cfg.Subtitles.ShadowSize = defaultShadowSize
	}
	if cfg.Subtitles.WrapWidth == 0 {
		cfg.Subtitles.WrapWidth = defaultWrapWidth
	}
}

func applySchedulerDefaults(cfg *Config) {
	if cfg.Scheduler.ScriptPoll == 0 {
		cfg.Scheduler.ScriptPoll = Duration(defaultScriptPoll)
	}
	if cfg.Scheduler.QueueInterval == 0 {
		cfg.Scheduler.QueueInterval = Duration(defaultQueueInterval)
	}
	if cfg.Scheduler.VideoPoll == 0 {
		cfg.Scheduler.VideoPoll = Duration(defaultVideoPoll)
	}
	if cfg.Scheduler.PostingPoll == 0 {
		cfg.Scheduler.PostingPoll = Duration(defaultPostingPoll)
	}
	if cfg.Scheduler.ScriptBatch == 0 {
		cfg.Scheduler.ScriptBatch = defaultScriptBatch
	}
	if cfg.Scheduler.VideoBatch == 0 {
		cfg.Scheduler.VideoBatch = defaultVideoBatch
	}
}

func applyPublisherDefaults(cfg *Config) {
	if cfg.Publisher.UploadTimeout == 0 {
		cfg.Publisher.UploadTimeout = Duration(defaultUploadTimeout)
	}
	if cfg.Publisher.StoryTimeout == 0 {
		cfg.Publisher.StoryTimeout = Duration(defaultStoryTimeout)
	}
}

// Width and Height parse the WxH resolution string; a malformed value falls
// back to the 1080x1920 portrait default.
func (v VideoConfig) Width() int {
	w, _ := splitResolution(v.Resolution)
	return w
}

func (v VideoConfig) Height() int {
	_, h := splitResolution(v.Resolution)
	return h
}

func splitResolution(res string) (int, int) {
	for i := 0; i < len(res); i++ {
		if res[i] == 'x' {
			w, err1 := strconv.Atoi(res[:i])
			h, err2 := strconv.Atoi(res[i+1:])
			if err1 == nil && err2 == nil && w > 0 && h > 0 {
				return w, h
			}
			break
		}
	}
	return 1080, 1920
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
