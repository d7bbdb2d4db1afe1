package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"reelcraft/pkg/config"
)

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with external services",
}

var authFacebookCmd = &cobra.Command{
	Use:   "facebook",
	Short: "Authenticate with Facebook (OAuth)",
	Long: `Complete the Facebook OAuth flow using FACEBOOK_APP_ID and
FACEBOOK_APP_SECRET from .env, then list the page access tokens available
to the authenticated account.`,
	RunE: runAuthFacebook,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check authentication status for all services",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authFacebookCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Println(authInfoStyle.Render("\nService Authentication Status:\n"))

	if cfg.GroqAPIKey != "" {
		fmt.Println(authSuccessStyle.Render("✓ Groq: API key configured"))
	} else {
		fmt.Println(authErrorStyle.Render("✗ Groq: missing GROQ_API_KEY"))
	}

	if cfg.ElevenLabsAPIKey != "" {
		fmt.Println(authSuccessStyle.Render("✓ ElevenLabs: API key configured"))
	} else {
		fmt.Println(authInfoStyle.Render("○ ElevenLabs: not configured (videos render silent)"))
	}

	switch {
	case cfg.FacebookPageID != "" && cfg.FacebookPageToken != "":
		fmt.Println(authSuccessStyle.Render("✓ Facebook: page token configured"))
	case cfg.FacebookAppID != "" && cfg.FacebookAppSecret != "":
		fmt.Println(authErrorStyle.Render("✗ Facebook: app credentials set, but no page token"))
		fmt.Println(authInfoStyle.Render("  Run: reelcraft auth facebook"))
	default:
		fmt.Println(authErrorStyle.Render("✗ Facebook: missing FACEBOOK_PAGE_ID or FACEBOOK_PAGE_TOKEN"))
	}

	if cfg.GCSBucket != "" {
		fmt.Println(authSuccessStyle.Render("✓ GCS: archive bucket configured"))
	} else {
		fmt.Println(authInfoStyle.Render("○ GCS: not configured (optional)"))
	}

	fmt.Println()
	return nil
}

func runAuthFacebook(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.FacebookAppID == "" || cfg.FacebookAppSecret == "" {
		return fmt.Errorf("FACEBOOK_APP_ID and FACEBOOK_APP_SECRET must be set in .env")
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.FacebookAppID,
		ClientSecret: cfg.FacebookAppSecret,
		Endpoint:     facebook.Endpoint,
		Scopes: []string{
			"pages_show_list",
			"pages_manage_posts",
			"pages_read_engagement",
		},
		RedirectURL: "http://localhost:8085/callback",
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	listener, err := net.Listen("tcp", ":8085")
	if err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}

	server := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no code in callback")
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
			return
		}

		codeChan <- code
		_, _ = fmt.Fprintf(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	authURL := oauthConfig.AuthCodeURL("state-token")
	fmt.Println(authInfoStyle.Render("\nOpening browser for Facebook authentication..."))
	fmt.Println(authInfoStyle.Render("If browser doesn't open, visit:\n" + authURL))

	_ = browser.OpenURL(authURL)

	fmt.Println(authInfoStyle.Render("\nWaiting for authentication..."))

	select {
	case code := <-codeChan:
		token, err := oauthConfig.Exchange(context.Background(), code)
		if err != nil {
			return fmt.Errorf("exchange code: %w", err)
		}
		return savePageToken(token.AccessToken)

	case err := <-errChan:
		return err

	case <-time.After(5 * time.Minute):
		return fmt.Errorf("authentication timed out")
	}
}

type pageAccounts struct {
	Data []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		AccessToken string `json:"access_token"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// savePageToken lists the pages the user manages and writes the chosen one
// into .env. Page tokens obtained this way do not expire.
func savePageToken(userToken string) error {
	resp, err := http.Get("https://graph.facebook.com/v18.0/me/accounts?access_token=" + userToken)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var accounts pageAccounts
	if err := json.NewDecoder(resp.Body).Decode(&accounts); err != nil {
		return fmt.Errorf("decode pages response: %w", err)
	}
	if accounts.Error != nil {
		return fmt.Errorf("graph api error: %s", accounts.Error.Message)
	}
	if len(accounts.Data) == 0 {
		return fmt.Errorf("no pages found for this account")
	}

	fmt.Println(authSuccessStyle.Render("\n✓ Facebook authentication complete"))

	options := make([]huh.Option[int], 0, len(accounts.Data))
	for i, page := range accounts.Data {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", page.Name, page.ID), i))
	}

	var choice int
	if err := huh.NewSelect[int]().
		Title("Which page should reelcraft publish to?").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return err
	}
	page := accounts.Data[choice]

	env, err := godotenv.Read()
	if err != nil {
		env = make(map[string]string)
	}
	env["FACEBOOK_PAGE_ID"] = page.ID
	env["FACEBOOK_PAGE_TOKEN"] = page.AccessToken
	if err := godotenv.Write(env, ".env"); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}

	fmt.Println(authSuccessStyle.Render("✓ Page credentials saved to .env"))
	fmt.Println(authInfoStyle.Render("  Page: " + page.Name))
	return nil
}
