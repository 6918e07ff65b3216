package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const AccessTokenCookie = "access_token"

type subjectKey struct{}

// SubjectFromContext returns the username the request gate attached to the request.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey{}).(string)
	return subject, ok && subject != ""
}

var (
	errMissingToken  = fmt.Errorf("%w: not authenticated", ErrUnauthorized)
	errRejectedToken = fmt.Errorf("%w: token is invalid or has expired", ErrUnauthorized)
)

// Gate guards every path starting with one of prefixes. Other paths pass through untouched.
// Guarded requests need a token in the access_token cookie or an Authorization bearer header;
// an invalid or expired token is rejected and the cookie cleared. Accepted requests reach next
// as a clone carrying the bearer header and the token subject.
func Gate(tokens *TokenManager, prefixes []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isProtected(r.URL.Path, prefixes) {
			incrementGateDecisions("passthrough")
			next.ServeHTTP(w, r)
			return
		}

		token, subject, err := authorize(tokens, r)
		if err != nil {
			incrementGateDecisions("rejected")
			if token != "" {
				clearAccessTokenCookie(w, r)
			}
			writeError(w, http.StatusUnauthorized, unauthorizedMessage(err))
			return
		}

		downstream := r.Clone(context.WithValue(r.Context(), subjectKey{}, subject))
		downstream.Header.Set("Authorization", "Bearer "+token)

		incrementGateDecisions("allowed")
		next.ServeHTTP(w, downstream)
	})
}

// authorize returns the presented token and its subject. Every failure wraps ErrUnauthorized.
func authorize(tokens *TokenManager, r *http.Request) (string, string, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return "", "", errMissingToken
	}

	if tokens.IsExpired(token) {
		return token, "", errRejectedToken
	}

	subject, err := tokens.Decode(token)
	if err != nil {
		return token, "", errRejectedToken
	}

	return token, subject, nil
}

func unauthorizedMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrUnauthorized.Error()+": ")
}

func isProtected(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// tokenFromRequest prefers the access_token cookie and falls back to an Authorization bearer header.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, credentials, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credentials)
}

func setAccessTokenCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func clearAccessTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}
