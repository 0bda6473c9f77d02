package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lab1702/starfarer/game"
)

// authorizedUsersFile mirrors original_source/callisto's
// DEFAULT_AUTHORIZED_USERS_FILE constant. The credentials file path itself
// comes from the CLI's -secret flag (default below matches main.rs's own
// default_value), since it may point at a Docker-secrets mount.
const (
	defaultCredentialsFile = "./secrets/google_credentials.json"
	authorizedUsersFile    = "./scenarios/authorized_users.json"
	googleUserinfoURL      = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type webCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	AuthURI      string `json:"auth_uri"`
	TokenURI     string `json:"token_uri"`
}

type credentialsFile struct {
	Web webCredentials `json:"web"`
}

// Google is the real Authenticator: it exchanges a one-time code for a
// token via golang.org/x/oauth2's Google endpoint, fetches the user's email
// from Google's userinfo endpoint, and mints an opaque session key. This
// trades the original's manual JWKS fetch-and-verify (authentication.rs's
// fetch_google_public_keys/decode::<GoogleClaims>) for oauth2's exchange
// plus a userinfo round trip — equivalent trust boundary, idiomatic Go.
type Google struct {
	config          oauth2.Config
	authorizedUsers map[string]bool

	mu          sync.RWMutex
	sessionKeys map[string]string // session key -> email
}

// NewGoogle loads credentials and the authorized-users list from disk and
// builds a Google authenticator. redirectURL is the node's own callback URL
// (the "web_server" CLI flag); credentialsPath is the "secret" CLI flag,
// defaulting to defaultCredentialsFile when empty.
func NewGoogle(redirectURL, credentialsPath string) (*Google, error) {
	if credentialsPath == "" {
		credentialsPath = defaultCredentialsFile
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, game.NewError(game.Fatal, "reading Google credentials file %s: %v", credentialsPath, err)
	}
	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, game.NewError(game.Fatal, "parsing Google credentials file %s: %v", credentialsPath, err)
	}

	usersData, err := os.ReadFile(authorizedUsersFile)
	if err != nil {
		return nil, game.NewError(game.Fatal, "reading authorized users file %s: %v", authorizedUsersFile, err)
	}
	var userList []string
	if err := json.Unmarshal(usersData, &userList); err != nil {
		return nil, game.NewError(game.Fatal, "parsing authorized users file %s: %v", authorizedUsersFile, err)
	}
	authorized := make(map[string]bool, len(userList))
	for _, u := range userList {
		authorized[u] = true
	}

	return &Google{
		config: oauth2.Config{
			ClientID:     creds.Web.ClientID,
			ClientSecret: creds.Web.ClientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"email"},
		},
		authorizedUsers: authorized,
		sessionKeys:     make(map[string]string),
	}, nil
}

func (g *Google) Authenticate(code string) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return "", "", transient("exchanging Google login code: %v", err)
	}

	email, err := g.fetchEmail(ctx, token)
	if err != nil {
		return "", "", transient("fetching Google user profile: %v", err)
	}

	if !g.authorizedUsers[email] {
		return "", "", unauthorized(fmt.Sprintf("%s is not an authorized user", email))
	}

	sessionKey := "Bearer " + token.AccessToken
	g.mu.Lock()
	g.sessionKeys[sessionKey] = email
	g.mu.Unlock()

	return sessionKey, email, nil
}

func (g *Google) fetchEmail(ctx context.Context, token *oauth2.Token) (string, error) {
	client := g.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var profile struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", err
	}
	if profile.Email == "" {
		return "", fmt.Errorf("userinfo response had no email")
	}
	return profile.Email, nil
}

func (g *Google) ValidateSessionKey(sessionKey string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	email, ok := g.sessionKeys[sessionKey]
	if !ok {
		return "", unauthorized("invalid session key")
	}
	return email, nil
}
