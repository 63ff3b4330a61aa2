package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

// Claims carried by API tokens. The subject is the numeric user id.
type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller.
type Actor struct {
	ID    uint64
	Admin bool
}

// Auth validates the bearer token and stores the Actor on the context.
func Auth(secret []byte) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return new(Claims) },
		SigningKey:    secret,
		SigningMethod: jwt.SigningMethodHS256.Name,
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
			}
			claims := token.Claims.(*Claims)
			id, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token subject is not a user id"})
			}
			c.Set(actorKey, Actor{ID: id, Admin: claims.Admin})
			return next(c)
		})
	}
}

// RequireAdmin rejects callers whose token lacks the admin claim.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		a, ok := ActorFrom(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or missing token"})
		}
		if !a.Admin {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "admin only"})
		}
		return next(c)
	}
}

func ActorFrom(c echo.Context) (Actor, bool) {
	a, ok := c.Get(actorKey).(Actor)
	return a, ok
}

var errNoSubject = errors.New("user id is required")

// IssueToken signs a token for userID. Used by tooling and tests; the API
// itself never issues tokens.
func IssueToken(secret []byte, userID uint64, admin bool, ttl time.Duration) (string, error) {
	if userID == 0 {
		return "", errNoSubject
	}
	now := time.Now()
	claims := &Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
