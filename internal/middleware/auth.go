package middleware

import (
	"net/http"
	"strings"

	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenCookie carries the session token for browser clients
	AccessTokenCookie = "access_token"
	// ContextUserID is the gin context key holding the authenticated user id
	ContextUserID = "userID"
)

// CookieOptions decides how session cookies are scoped
type CookieOptions struct {
	// CrossSite is set when the dashboard is served from another origin
	CrossSite bool
	MaxAge    int
}

func (o CookieOptions) apply(c *gin.Context) bool {
	// Production (cross-origin): SameSiteNoneMode + Secure=true
	// Development (same-site):   SameSiteLaxMode  + Secure=false
	if o.CrossSite {
		c.SetSameSite(http.SameSiteNoneMode)
		return true
	}
	c.SetSameSite(http.SameSiteLaxMode)
	return false
}

// SetTokenCookie stores the access token as an HttpOnly cookie
func SetTokenCookie(c *gin.Context, accessToken string, opts CookieOptions) {
	secure := opts.apply(c)
	c.SetCookie(AccessTokenCookie, accessToken, opts.MaxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie
func ClearTokenCookie(c *gin.Context, opts CookieOptions) {
	secure := opts.apply(c)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
}

// RequireAuth validates the HS256 token from the cookie or the Authorization
// header and stores its subject under ContextUserID.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try cookie first, fallback to Authorization header
		tokenString, cookieErr := c.Cookie(AccessTokenCookie)
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				response.Fail(c, http.StatusUnauthorized, "Authorization is missing")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				response.Fail(c, http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'")
				return
			}
			tokenString = strings.TrimSpace(token)
		}

		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			response.Fail(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			response.Fail(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		c.Set(ContextUserID, subject)
		c.Next()
	}
}

// UserID returns the authenticated user id, empty when RequireAuth did not run
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
