package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Reelcraft",
	Long:  `Configure API keys, create directories, and check required tools.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 Reelcraft Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Checking tools", checkTools},
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func checkTools() error {
	return runWithSpinner("Checking ffmpeg", func() error {
		for _, tool := range []string{"ffmpeg", "ffprobe"} {
			if !commandExists(tool) {
				return fmt.Errorf("%s not found, install it from https://ffmpeg.org/download.html", tool)
			}
		}
		return nil
	})
}

func createDirectories() error {
	dirs := []string{"data", "output/videos"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureRequiredKeys(env); err != nil {
		return err
	}

	if err := configureFacebook(env); err != nil {
		return err
	}

	if err := configureOptionalKeys(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureRequiredKeys(env map[string]string) error {
	var groqKey string

	if err := huh.NewInput().
		Title("GROQ API Key").
		Description("https://console.groq.com/keys").
		Value(&groqKey).
		Validate(required("GROQ API Key")).
		Run(); err != nil {
		return err
	}

	env["GROQ_API_KEY"] = strings.TrimSpace(groqKey)
	return nil
}

func configureFacebook(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup Facebook publishing?").
		Description("Required for posting videos; skip to render locally only").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var pageID, pageToken, appID, appSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Facebook Page ID").
				Value(&pageID),
			huh.NewInput().
				Title("Facebook Page Token").
				Description("Leave empty to obtain one via: reelcraft auth facebook").
				EchoMode(huh.EchoModePassword).
				Value(&pageToken),
			huh.NewInput().
				Title("Facebook App ID (for OAuth)").
				Value(&appID),
			huh.NewInput().
				Title("Facebook App Secret (for OAuth)").
				EchoMode(huh.EchoModePassword).
				Value(&appSecret),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	setIfPresent(env, "FACEBOOK_PAGE_ID", pageID)
	setIfPresent(env, "FACEBOOK_PAGE_TOKEN", pageToken)
	setIfPresent(env, "FACEBOOK_APP_ID", appID)
	setIfPresent(env, "FACEBOOK_APP_SECRET", appSecret)
	return nil
}

func configureOptionalKeys(env map[string]string) error {
	if err := configureElevenLabs(env); err != nil {
		return err
	}
	return configureGCS(env)
}

func configureElevenLabs(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup ElevenLabs narration?").
		Description("Videos render silent without it (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var apiKey string
	if err := huh.NewInput().
		Title("ElevenLabs API Key").
		Description("https://elevenlabs.io/app/settings/api-keys").
		Value(&apiKey).
		Run(); err != nil {
		return err
	}

	setIfPresent(env, "ELEVENLABS_API_KEY", apiKey)
	return nil
}

func configureGCS(env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud Storage archive?").
		Description("Mirrors finished videos to a bucket (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var project, bucket string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Google Cloud Project").
				Description("Also enables Secret Manager key fallback").
				Value(&project),
			huh.NewInput().
				Title("GCS Bucket").
				Value(&bucket),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	setIfPresent(env, "GOOGLE_CLOUD_PROJECT", project)
	setIfPresent(env, "GCS_BUCKET", bucket)
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GROQ_API_KEY",
		"ELEVENLABS_API_KEY",
		"FACEBOOK_PAGE_ID",
		"FACEBOOK_PAGE_TOKEN",
		"FACEBOOK_APP_ID",
		"FACEBOOK_APP_SECRET",
		"GOOGLE_CLOUD_PROJECT",
		"GCS_BUCKET",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Generate scripts:  reelcraft generate --now")
	fmt.Println("  2. Render the best:   reelcraft once")
	fmt.Println("  3. Run the pipeline:  reelcraft serve")
}

func setIfPresent(env map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value != "" {
		env[key] = value
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
