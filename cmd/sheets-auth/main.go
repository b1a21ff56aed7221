// Command sheets-auth runs the OAuth consent flow once and saves the user token the
// spreadsheet mirror reads from GOOGLE_OAUTH_TOKEN_FILE.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"

	"finanzas/internal/cli"
	"finanzas/internal/config"
	applog "finanzas/internal/log"
	gsheet "finanzas/internal/sheets/google"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := applog.Setup(os.Getenv("LOG_LEVEL"), applog.ComponentSheets)

	// Only the OAuth files matter here; the rest of the configuration may be incomplete.
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	tokenFile := cfg.GoogleOAuthTokenFile
	if tokenFile == "" {
		tokenFile = "token.json"
	}
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}

	oauthCfg, err := gsheet.OAuthConfigFromFile(cfg.GoogleOAuthClientFile)
	if err != nil {
		logger.Error("Failed to read OAuth client", "error", err, "path", cfg.GoogleOAuthClientFile)
		os.Exit(1)
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	ctx, cancel := cli.SignalContext(logger.Logger)
	defer cancel()

	tok, err := authorize(ctx, oauthCfg, ":"+redirectPort)
	if err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}
	if err := gsheet.SaveToken(tokenFile, tok); err != nil {
		logger.Error("Failed to save token", "error", err, "path", tokenFile)
		os.Exit(1)
	}
	logger.Info("Saved OAuth token", "path", tokenFile)
}

// authorize prints the consent URL, waits for the redirect on addr and exchanges the
// returned code for a token.
func authorize(ctx context.Context, cfg *oauth2.Config, addr string) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			errCh <- fmt.Errorf("consent denied: %s", q.Get("error"))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "Puedes cerrar esta ventana y volver a la terminal.")
			codeCh <- q.Get("code")
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}
