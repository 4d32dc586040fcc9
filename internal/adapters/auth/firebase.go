package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"eventscheduler/internal/domain"
)

// DefaultIdentityToolkitURL is the Firebase Auth REST endpoint.
const DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// FirebaseAdmin is the subset of the Firebase Admin auth client the provider needs.
type FirebaseAdmin interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// NewFirebaseAdmin initializes the Firebase Admin SDK auth client. An empty credentialsFile
// uses Application Default Credentials.
func NewFirebaseAdmin(ctx context.Context, projectID, credentialsFile string) (*fbauth.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app init: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth init: %w", err)
	}
	return client, nil
}

// FirebaseProvider signs users up and in through the Identity Toolkit REST API and verifies
// ID tokens with the Admin SDK.
type FirebaseProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	admin      FirebaseAdmin
}

func NewFirebaseProvider(apiKey, baseURL string, admin FirebaseAdmin, httpClient *http.Client) *FirebaseProvider {
	if baseURL == "" {
		baseURL = DefaultIdentityToolkitURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &FirebaseProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		admin:      admin,
	}
}

var (
	_ domain.IdentityProvider = (*FirebaseProvider)(nil)
	_ domain.TokenVerifier    = (*FirebaseProvider)(nil)
)

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
	LocalID string `json:"localId"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	return p.passwordCall(ctx, "accounts:signUp", email, password)
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	return p.passwordCall(ctx, "accounts:signInWithPassword", email, password)
}

func (p *FirebaseProvider) passwordCall(ctx context.Context, method, email, password string) (*domain.Identity, error) {
	if p.apiKey == "" {
		return nil, &domain.ConfigurationError{Message: "firebase api key is not configured"}
	}
	body, err := json.Marshal(passwordRequest{Email: strings.TrimSpace(email), Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, err
	}
	endpoint := p.baseURL + "/" + method + "?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ServiceError{Message: "identity toolkit request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var te toolkitError
		if err := json.NewDecoder(resp.Body).Decode(&te); err == nil && te.Error.Message != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return nil, domain.NewAuthError(te.Error.Message)
			}
			return nil, &domain.ServiceError{StatusCode: resp.StatusCode, Message: te.Error.Message}
		}
		return nil, &domain.ServiceError{StatusCode: resp.StatusCode, Message: "identity toolkit request failed"}
	}

	var out passwordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &domain.ServiceError{StatusCode: resp.StatusCode, Message: "decode identity toolkit response: " + err.Error()}
	}
	return &domain.Identity{UserID: out.LocalID, Email: out.Email, Token: out.IDToken}, nil
}

// Verify checks the ID token signature and that the user's refresh tokens were not revoked.
func (p *FirebaseProvider) Verify(ctx context.Context, idToken string) (*domain.Identity, error) {
	if p.admin == nil {
		return nil, &domain.ConfigurationError{Message: "firebase admin is not configured"}
	}
	token, err := p.admin.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil || strings.TrimSpace(token.UID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	email, _ := token.Claims["email"].(string)
	return &domain.Identity{UserID: token.UID, Email: email, Token: idToken}, nil
}

// SignOut revokes every refresh token of the token's user, which also fails later
// revocation-checked verifications of outstanding ID tokens.
func (p *FirebaseProvider) SignOut(ctx context.Context, idToken string) error {
	identity, err := p.Verify(ctx, idToken)
	if err != nil {
		return err
	}
	if err := p.admin.RevokeRefreshTokens(ctx, identity.UserID); err != nil {
		return &domain.ServiceError{Message: "revoke refresh tokens: " + err.Error()}
	}
	return nil
}
