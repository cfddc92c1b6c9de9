package app

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrBrightsidedev/Docwise/app/config"
	"github.com/MrBrightsidedev/Docwise/app/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	docsAPIBase   = "https://docs.googleapis.com/v1/documents"
	sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

	scopeDocs   = "https://www.googleapis.com/auth/documents"
	scopeSheets = "https://www.googleapis.com/auth/spreadsheets"

	// stateTTL bounds how long an issued consent URL stays usable.
	stateTTL = 10 * time.Minute
)

// GoogleExporter manages stored Google OAuth tokens and pushes documents to
// Docs or Sheets. The stored OAuthToken row is the single source of truth for
// "is Google connected".
type GoogleExporter struct {
	oauth  *oauth2.Config
	store  *Store
	client *http.Client

	// Overridable endpoints so tests can point at a local server.
	docsURL   string
	sheetsURL string
}

func NewGoogleExporter(cfg config.GoogleConfig, store *Store) *GoogleExporter {
	return &GoogleExporter{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{scopeDocs, scopeSheets},
			Endpoint:     google.Endpoint,
		},
		store:     store,
		client:    &http.Client{Timeout: 30 * time.Second},
		docsURL:   docsAPIBase,
		sheetsURL: sheetsAPIBase,
	}
}

func (g *GoogleExporter) Configured() bool {
	return g.oauth.ClientID != "" && g.oauth.ClientSecret != "" && g.oauth.RedirectURL != ""
}

// AuthURL returns the consent-screen URL for the connect flow. Offline access
// is requested so a refresh token comes back with the first grant. The state
// value is signed so the public callback can trust the user id inside it.
func (g *GoogleExporter) AuthURL(userID string) string {
	return g.oauth.AuthCodeURL(g.signState(userID), oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// signState packs an expiry and the user id into a MAC-authenticated state
// value. Expiry comes first since user ids may themselves contain separators.
func (g *GoogleExporter) signState(userID string) string {
	payload := fmt.Sprintf("%d|%s", time.Now().Add(stateTTL).Unix(), userID)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + g.stateMAC(encoded)
}

func (g *GoogleExporter) stateMAC(encoded string) string {
	mac := hmac.New(sha256.New, []byte(g.oauth.ClientSecret))
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyState validates a callback state value and returns the user id it was
// issued for. Tampered, forged or expired values return ErrInvalidInput, so a
// caller-controlled state can never select which user a token is stored under.
func (g *GoogleExporter) VerifyState(state string) (string, error) {
	encoded, sig, ok := strings.Cut(state, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(g.stateMAC(encoded))) {
		return "", ErrInvalidInput
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidInput
	}
	expStr, userID, ok := strings.Cut(string(raw), "|")
	if !ok || userID == "" {
		return "", ErrInvalidInput
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return "", ErrInvalidInput
	}
	return userID, nil
}

// Connect exchanges an authorization code and stores the resulting token,
// overwriting any previous record for the user.
func (g *GoogleExporter) Connect(ctx context.Context, userID, code string) error {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange: %w", err)
	}
	return g.store.SaveOAuthToken(ctx, models.OAuthToken{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
		Scope:        scopeDocs + " " + scopeSheets,
	})
}

// Connected reports whether a token record is on file for the user.
func (g *GoogleExporter) Connected(ctx context.Context, userID string) (bool, error) {
	_, err := g.store.GetOAuthToken(ctx, userID)
	if errors.Is(err, ErrNotConnected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// validToken returns a usable access token for the user, transparently
// refreshing and re-persisting an expired one. ErrNotConnected when no record
// exists; ErrTokenExpired when expired with no refresh token on file.
func (g *GoogleExporter) validToken(ctx context.Context, userID string) (string, error) {
	rec, err := g.store.GetOAuthToken(ctx, userID)
	if err != nil {
		return "", err
	}

	if rec.ExpiresAt.After(time.Now().Add(30 * time.Second)) {
		return rec.AccessToken, nil
	}
	if rec.RefreshToken == "" {
		return "", ErrTokenExpired
	}

	src := g.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
		Expiry:       rec.ExpiresAt,
	})
	fresh, err := src.Token()
	if err != nil {
		return "", ErrTokenExpired
	}

	rec.AccessToken = fresh.AccessToken
	rec.ExpiresAt = fresh.Expiry
	if fresh.RefreshToken != "" {
		rec.RefreshToken = fresh.RefreshToken
	}
	if err := g.store.SaveOAuthToken(ctx, rec); err != nil {
		return "", err
	}
	return rec.AccessToken, nil
}

type exportError struct {
	Status int
	Body   string
}

func (e exportError) Error() string {
	return fmt.Sprintf("export API returned %d", e.Status)
}

// Export pushes a document to the requested target and returns its shareable
// URL.
func (g *GoogleExporter) Export(ctx context.Context, userID, title, content, exportType string) (string, error) {
	token, err := g.validToken(ctx, userID)
	if err != nil {
		return "", err
	}

	switch exportType {
	case "docs":
		return g.exportDoc(ctx, token, title, content)
	case "sheets":
		return g.exportSheet(ctx, token, title)
	}
	return "", ErrInvalidInput
}

func (g *GoogleExporter) exportDoc(ctx context.Context, token, title, content string) (string, error) {
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := g.call(ctx, token, g.docsURL, map[string]any{"title": title}, &created); err != nil {
		return "", err
	}
	if created.DocumentID == "" {
		return "", exportError{Status: http.StatusOK, Body: "missing documentId"}
	}

	batch := map[string]any{
		"requests": []any{
			map[string]any{
				"insertText": map[string]any{
					"location": map[string]any{"index": 1},
					"text":     content,
				},
			},
		},
	}
	if err := g.call(ctx, token, g.docsURL+"/"+created.DocumentID+":batchUpdate", batch, nil); err != nil {
		return "", err
	}
	return "https://docs.google.com/document/d/" + created.DocumentID + "/edit", nil
}

func (g *GoogleExporter) exportSheet(ctx context.Context, token, title string) (string, error) {
	var created struct {
		SpreadsheetID  string `json:"spreadsheetId"`
		SpreadsheetURL string `json:"spreadsheetUrl"`
	}
	body := map[string]any{"properties": map[string]any{"title": title}}
	if err := g.call(ctx, token, g.sheetsURL, body, &created); err != nil {
		return "", err
	}
	if created.SpreadsheetURL != "" {
		return created.SpreadsheetURL, nil
	}
	if created.SpreadsheetID == "" {
		return "", exportError{Status: http.StatusOK, Body: "missing spreadsheetId"}
	}
	return "https://docs.google.com/spreadsheets/d/" + created.SpreadsheetID + "/edit", nil
}

func (g *GoogleExporter) call(ctx context.Context, token, url string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return exportError{Status: resp.StatusCode, Body: string(body)}
	}
	if out != nil {
		return json.Unmarshal(body, out)
	}
	return nil
}
