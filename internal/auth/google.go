package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"loanmvp/internal/shared/server/respond"
	"loanmvp/internal/users"
)

const (
	googleUserinfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	loginStateTTL     = 5 * time.Minute
)

// GoogleService runs the Google authorization-code flow with PKCE and
// redirects back to the UI with a JWT for the linked account.
type GoogleService struct {
	Users       *users.Service
	UserinfoURL string
	Now         func() time.Time

	oauth      *oauth2.Config
	uiRedirect string
	pending    *pendingLogins
}

func NewGoogleService(usersSvc *users.Service, clientID, clientSecret, redirectURL, uiRedirect string) *GoogleService {
	return &GoogleService{
		Users:       usersSvc,
		UserinfoURL: googleUserinfoURL,
		Now:         time.Now,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		uiRedirect: uiRedirect,
		pending:    &pendingLogins{items: map[string]pendingLogin{}},
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauth.ClientID != "" && s.oauth.ClientSecret != "" && s.oauth.RedirectURL != "" && s.uiRedirect != ""
}

// start: GET /auth/google/start?next=/loans/123
func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusServiceUnavailable, "auth_not_configured", "Google sign-in is not configured", nil)
		return
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	s.pending.put(state, pendingLogin{
		verifier: verifier,
		next:     safeNextPath(c.Query("next")),
		expires:  s.Now().Add(loginStateTTL),
	}, s.Now())

	c.Redirect(http.StatusFound, s.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	))
}

func (s *GoogleService) callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		respond.Error(c, http.StatusBadRequest, "auth_denied", "Google sign-in was cancelled", gin.H{"reason": reason})
		return
	}
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	login, ok := s.pending.take(state, s.Now())
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(login.verifier))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch Google profile", nil)
		return
	}
	// Accounts are linked by email, so only a verified address may claim one.
	if !profile.EmailVerified {
		respond.Error(c, http.StatusForbidden, "email_unverified", "Google account email is not verified", nil)
		return
	}

	user, err := s.Users.UpsertFromIdentity(ctx, users.ExternalIdentity{
		Subject:  "google:" + profile.Sub,
		Email:    profile.Email,
		FullName: profile.Name,
		Picture:  profile.Picture,
	})
	if err != nil {
		respond.Internal(c, "failed to store user", err)
		return
	}
	jwt, err := users.Token(user)
	if err != nil {
		respond.Internal(c, "failed to issue token", err)
		return
	}
	target, err := uiRedirectURL(s.uiRedirect, jwt, login.next)
	if err != nil {
		respond.Internal(c, "failed to redirect", err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

type googleProfile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *GoogleService) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	resp, err := s.oauth.Client(ctx, token).Get(s.UserinfoURL)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return googleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if p.Sub == "" || p.Email == "" {
		return googleProfile{}, errors.New("userinfo missing sub or email")
	}
	return p, nil
}

type pendingLogin struct {
	verifier string
	next     string
	expires  time.Time
}

// pendingLogins holds in-flight states; each is single use.
type pendingLogins struct {
	mu    sync.Mutex
	items map[string]pendingLogin
}

func (p *pendingLogins) put(state string, login pendingLogin, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range p.items {
		if now.After(v.expires) {
			delete(p.items, k)
		}
	}
	p.items[state] = login
}

func (p *pendingLogins) take(state string, now time.Time) (pendingLogin, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	login, ok := p.items[state]
	if !ok {
		return pendingLogin{}, false
	}
	delete(p.items, state)
	if now.After(login.expires) {
		return pendingLogin{}, false
	}
	return login, true
}

// safeNextPath keeps only same-origin absolute paths.
func safeNextPath(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}

func uiRedirectURL(base, token, next string) (string, error) {
	if base == "" {
		return "", errors.New("ui redirect url required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	if next != "" {
		q.Set("next", next)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
