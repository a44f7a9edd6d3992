package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// authTimeout bounds how long the interactive flow waits for the browser
// callback.
const authTimeout = 5 * time.Minute

const callbackOKPage = `<html><body>
<h1>Authentication Successful!</h1>
<p>You can close this window and return to the terminal.</p>
<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`

const callbackFailPage = `<html><body>
<h1>Authentication Failed</h1>
<p>No authorization code received. Please try again.</p>
<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`

// OAuth2Config holds the credentials for the interactive OAuth2 flow.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
}

func (c OAuth2Config) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://localhost:8080/callback",
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// AuthenticateInteractive runs the OAuth2 authorization-code flow: it starts
// a local callback server, prints the consent URL and waits for the user to
// approve access in the browser. The obtained token is saved to TokenFile
// when set; its refresh token is what belongs in the exporter config.
func AuthenticateInteractive(ctx context.Context, config OAuth2Config) (*oauth2.Token, error) {
	oauthConfig := config.oauthConfig()

	codes := make(chan string, 1)
	fails := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			fails <- errors.New("no authorization code received")
			_, _ = fmt.Fprint(w, callbackFailPage)
			return
		}
		codes <- code
		_, _ = fmt.Fprint(w, callbackOKPage)
	})

	server := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			fails <- fmt.Errorf("failed to start callback server: %w", err)
		}
	}()
	defer func() {
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	slog.Info("Google Sheets authentication required")
	slog.Info("please visit this URL to authenticate", "url", authURL)

	var authCode string
	select {
	case authCode = <-codes:
	case err := <-fails:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, fmt.Errorf("no authorization response within %s", authTimeout)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := saveToken(config.TokenFile, token); err != nil {
			slog.Warn("failed to save token", "error", err, "file", config.TokenFile)
		} else {
			slog.Info("token saved", "file", config.TokenFile)
		}
	}

	return token, nil
}

// LoadToken loads a previously saved token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	data, err := os.ReadFile(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
