package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/duty-roster/internal/config"
)

func TestMissingScopes(t *testing.T) {
	readWrite := SheetsScopes(true)
	readOnly := SheetsScopes(false)

	tests := []struct {
		name     string
		granted  string
		required []string
		expected []string
	}{
		{"read/write granted", "openid " + ScopeSheets, readWrite, nil},
		{"other scope only", "https://www.googleapis.com/auth/drive", readWrite, []string{ScopeSheets}},
		{"nothing granted", "", readWrite, []string{ScopeSheets}},
		{"read/write covers read-only", ScopeSheets, readOnly, nil},
		{"read-only does not cover read/write", ScopeSheetsReadOnly, readWrite, []string{ScopeSheets}},
		{"read-only granted", ScopeSheetsReadOnly, readOnly, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, missingScopes(tt.granted, tt.required))
		})
	}
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		code   string
		err    string
	}{
		{"accepted", "?state=abc&code=xyz", http.StatusOK, "xyz", ""},
		{"wrong state", "?state=evil&code=xyz", http.StatusBadRequest, "", "oauth state mismatch"},
		{"denied", "?state=abc&error=access_denied", http.StatusBadRequest, "", "access_denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(chan string, 1)
			errs := make(chan error, 1)
			rec := httptest.NewRecorder()

			callbackHandler("abc", codes, errs)(rec, httptest.NewRequest(http.MethodGet, callbackPath+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, <-codes)
				return
			}
			assert.ErrorContains(t, <-errs, tt.err)
		})
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	token, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, token, "no token stored yet")

	stored := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, SaveTokenToFile("test", stored))

	loaded, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, stored.Expiry.Equal(loaded.Expiry))

	other, err := LoadTokenFromFile("prod")
	require.NoError(t, err)
	assert.Nil(t, other, "tokens are per environment")

	require.NoError(t, DeleteTokenFile("test"))
	require.NoError(t, DeleteTokenFile("test"), "deleting twice is fine")

	loaded, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func testOAuthClient() *config.OAuthClientConfig {
	return &config.OAuthClientConfig{
		Installed: config.OAuthInstalled{
			ClientID:     "id",
			ProjectID:    "duty-roster",
			AuthURI:      "https://accounts.google.com/o/oauth2/auth",
			TokenURI:     "https://oauth2.googleapis.com/token",
			ClientSecret: "secret",
			RedirectURIs: []string{"http://localhost"},
		},
	}
}

func TestGetOAuthConfig(t *testing.T) {
	cfg, err := GetOAuthConfig(testOAuthClient())
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, []string{ScopeSheets}, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)

	readOnly, err := GetOAuthConfig(testOAuthClient(), SheetsScopes(false)...)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeSheetsReadOnly}, readOnly.Scopes)
}
