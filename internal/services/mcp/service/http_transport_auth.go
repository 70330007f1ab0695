package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// minJWTSecretBytes is the shortest HS256 secret accepted.
const minJWTSecretBytes = 32

var (
	errBearerMissing = errors.New("authorization required")
	errBearerInvalid = errors.New("invalid access token")
)

// bearerAuth admits a request carrying either the static token or a valid
// HS256 JWT. A nil *bearerAuth admits everything.
type bearerAuth struct {
	token    string
	secret   []byte
	audience string
	now      func() time.Time
}

func newBearerAuth(token, secret, audience string, now func() time.Time) (*bearerAuth, error) {
	token = strings.TrimSpace(token)
	secret = strings.TrimSpace(secret)
	if token == "" && secret == "" {
		return nil, nil
	}
	if secret != "" && len(secret) < minJWTSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minJWTSecretBytes)
	}
	if now == nil {
		now = time.Now
	}
	auth := &bearerAuth{token: token, audience: strings.TrimSpace(audience), now: now}
	if secret != "" {
		auth.secret = []byte(secret)
	}
	return auth, nil
}

func (a *bearerAuth) check(header string) error {
	if !strings.HasPrefix(header, "Bearer ") {
		return errBearerMissing
	}
	credential := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if credential == "" {
		return errBearerMissing
	}
	if a.token != "" && subtle.ConstantTimeCompare([]byte(credential), []byte(a.token)) == 1 {
		return nil
	}
	if a.secret == nil {
		return errBearerInvalid
	}
	return a.verifyJWT(credential)
}

func (a *bearerAuth) verifyJWT(credential string) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.audience != "" {
		options = append(options, jwt.WithAudience(a.audience))
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, options...)
	if err != nil {
		return fmt.Errorf("%w: %s", errBearerInvalid, jwtFailure(err))
	}
	return nil
}

// jwtFailure names the check that rejected a token without echoing it.
func jwtFailure(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token is expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "token is not valid yet"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "token has no expiry"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "audience mismatch"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature is invalid"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "alg is invalid"
	default:
		return "malformed token"
	}
}

// authorizeRequest runs bearer checks only when auth is configured.
func (t *HTTPTransport) authorizeRequest(w http.ResponseWriter, r *http.Request) bool {
	if t.auth == nil {
		return true
	}
	if err := t.auth.check(r.Header.Get("Authorization")); err != nil {
		t.logger.Debug("rejected MCP request", zap.String("remote", r.RemoteAddr), zap.Error(err))
		w.Header().Set("WWW-Authenticate", `Bearer realm="bimbridge"`)
		message := errBearerInvalid.Error()
		if errors.Is(err, errBearerMissing) {
			message = errBearerMissing.Error()
		}
		http.Error(w, message, http.StatusUnauthorized)
		return false
	}
	return true
}

// validateLocalRequest checks Host and Origin against the allowed hosts to
// block DNS rebinding from browser pages.
func (t *HTTPTransport) validateLocalRequest(r *http.Request) error {
	if r == nil {
		return fmt.Errorf("invalid request")
	}
	if !t.isAllowedHostHeader(r.Host) {
		return fmt.Errorf("invalid host")
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return nil
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid origin")
	}
	if !t.isAllowedHostHeader(parsed.Host) {
		return fmt.Errorf("invalid origin")
	}
	return nil
}

func (t *HTTPTransport) isAllowedHostHeader(host string) bool {
	resolved, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(resolved) {
		return true
	}
	_, ok = t.allowedHosts[strings.ToLower(resolved)]
	return ok
}

func isLoopbackHost(host string) bool {
	return slices.Contains([]string{"localhost", "127.0.0.1", "::1"}, strings.ToLower(strings.TrimSpace(host)))
}

func parseAllowedHosts(hosts []string) map[string]struct{} {
	result := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		result[strings.ToLower(trimmed)] = struct{}{}
	}
	return result
}

// normalizeHost extracts the hostname from a Host or Origin header value.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}
	if strings.HasPrefix(host, "[") {
		if splitHost, _, err := net.SplitHostPort(host); err == nil {
			return splitHost, true
		}
		if strings.HasSuffix(host, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), true
		}
		return "", false
	}
	if strings.Count(host, ":") > 1 {
		return host, true
	}
	if strings.Contains(host, ":") {
		splitHost, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return splitHost, true
	}
	return host, true
}
