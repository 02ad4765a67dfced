package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"clipforge/internal/services"
	"clipforge/internal/state"
)

// authorizedUser mirrors the on-disk authorized user credential produced by
// the Google OAuth installed-app flow.
type authorizedUser struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURI     string `json:"token_uri"`
	Expiry       string `json:"expiry"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenSource serves bearer tokens for the YouTube API, refreshing through
// the stored refresh token when the cached access token has expired.
type tokenSource struct {
	client *http.Client

	mu         sync.Mutex
	credential authorizedUser
	token      string
	expiry     time.Time
}

func newTokenSource(path string, client *http.Client) (*tokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(state.StageUpload), "token", "read token file", err)
	}
	var credential authorizedUser
	if err := json.Unmarshal(data, &credential); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, string(state.StageUpload), "token", "decode token file", err)
	}
	if credential.RefreshToken == "" || credential.ClientID == "" || credential.ClientSecret == "" {
		return nil, services.Wrap(services.ErrConfiguration, string(state.StageUpload), "token", "token file missing refresh credentials", nil)
	}
	if credential.TokenURI == "" {
		credential.TokenURI = "https://oauth2.googleapis.com/token"
	}

	source := &tokenSource{client: client, credential: credential, token: credential.Token}
	if expiry, err := time.Parse(time.RFC3339, credential.Expiry); err == nil {
		source.expiry = expiry
	}
	return source, nil
}

// AccessToken returns a bearer token, refreshing when the cached one is
// within a minute of expiry.
func (s *tokenSource) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.expiry) > time.Minute {
		return s.token, nil
	}

	form := url.Values{
		"client_id":     {s.credential.ClientID},
		"client_secret": {s.credential.ClientSecret},
		"refresh_token": {s.credential.RefreshToken},
		"grant_type":    {"refresh_token"},
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.credential.TokenURI,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := s.client.Do(request)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, string(state.StageUpload), "token", "refresh access token", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, string(state.StageUpload), "token", "read refresh response", err)
	}
	if response.StatusCode != http.StatusOK {
		return "", &services.StatusError{StatusCode: response.StatusCode, Body: string(body)}
	}

	var refreshed refreshResponse
	if err := json.Unmarshal(body, &refreshed); err != nil {
		return "", services.Wrap(services.ErrExternalTool, string(state.StageUpload), "token", "decode refresh response", err)
	}
	if refreshed.AccessToken == "" {
		return "", services.Wrap(services.ErrConfiguration, string(state.StageUpload), "token",
			fmt.Sprintf("refresh returned no access token: %s", strings.TrimSpace(string(body))), nil)
	}

	s.token = refreshed.AccessToken
	s.expiry = time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	return s.token, nil
}
