package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/Abdu216/Ecommerce-API/internal/apperror"
	"github.com/Abdu216/Ecommerce-API/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerKey = "caller"

// Authenticator verifies bearer tokens issued by the identity provider.
// Tokens are HS256 with the user id in sub; role and active flag are read
// from the user row on every request.
type Authenticator struct {
	secret   []byte
	issuer   string
	identity *service.IdentityService
}

// NewAuthenticator creates a token verifier. An empty issuer skips the
// iss check.
func NewAuthenticator(secret, issuer string, identity *service.IdentityService) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, identity: identity}
}

// RequireAuth rejects requests without a valid token for an active user
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			respondError(c, apperror.Unauthorized("not authenticated"))
			return
		}

		userID, err := a.subject(parts[1])
		if err != nil {
			respondError(c, apperror.Unauthorized("could not validate credentials").Wrap(err))
			return
		}

		caller, err := a.identity.Resolve(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func (a *Authenticator) subject(tokenString string) (int64, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("invalid subject")
	}
	return userID, nil
}

// RequireStaff allows admin and staff callers only
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerFrom(c).IsStaff() {
			respondError(c, apperror.Forbidden("not enough permissions"))
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) *service.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*service.Caller)
	return caller
}
