package realtime

import (
	"context"
	"net/http"
	"strings"

	"loanmvp/internal/shared/auth"
)

const (
	userRoomPrefix = "user:"
	loanRoomPrefix = "loan:"
)

// UserRoom is the private room every authenticated socket joins.
func UserRoom(userID string) string { return userRoomPrefix + userID }

// LoanRoom carries events about a single application.
func LoanRoom(loanID string) string { return loanRoomPrefix + loanID }

// LoanAccess reports whether p may follow loanID. It returns nil when allowed.
type LoanAccess func(ctx context.Context, p auth.Principal, loanID string) error

// principalFromRequest reads the session token from ?token= (browsers cannot
// set headers on a websocket upgrade) or the Authorization header.
func principalFromRequest(r *http.Request) (auth.Principal, bool) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(header, "Bearer ") {
			return auth.Principal{}, false
		}
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}
	if token == "" {
		return auth.Principal{}, false
	}
	claims, err := auth.VerifyJWT(token)
	if err != nil {
		return auth.Principal{}, false
	}
	return auth.Principal{UserID: claims.Subject, Role: claims.Role}, true
}

// rooms resolves the rooms a socket joins: its own user room plus the
// optional requested one.
func (h *Hub) rooms(ctx context.Context, p auth.Principal, requested string) ([]string, error) {
	own := UserRoom(p.UserID)
	switch {
	case requested == "" || requested == own:
		return []string{own}, nil
	case strings.HasPrefix(requested, loanRoomPrefix):
		loanID := strings.TrimPrefix(requested, loanRoomPrefix)
		if loanID == "" {
			return nil, auth.ErrForbidden
		}
		if h.LoanAccess == nil {
			if !p.IsStaff() {
				return nil, auth.ErrForbidden
			}
		} else if err := h.LoanAccess(ctx, p, loanID); err != nil {
			return nil, err
		}
		return []string{own, requested}, nil
	default:
		return nil, auth.ErrForbidden
	}
}
