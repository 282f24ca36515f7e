package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/himigchat/himig/store"
)

const (
	// AccessTokenCookieName is the cookie carrying the session token.
	AccessTokenCookieName = "himig.access-token"
	// AccessTokenDuration is the lifetime of a session token.
	AccessTokenDuration = 7 * 24 * time.Hour

	issuer = "himig"
)

// ClaimsMessage is the JWT payload for a session token.
type ClaimsMessage struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// HashPassword derives the stored password verifier. The algorithm is opaque
// to everything outside this package.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword checks a candidate password against the stored verifier.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateAccessToken mints a signed session token for the user.
func GenerateAccessToken(username string, userID int32, secret string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		Name: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.Itoa(int(userID)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// Authenticate resolves a session token to its user, or returns an error for
// missing, malformed, expired, or orphaned tokens.
func Authenticate(ctx context.Context, s *store.Store, tokenString, secret string) (*store.User, error) {
	if tokenString == "" {
		return nil, errors.New("access token is missing")
	}

	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "malformed user id in token")
	}
	userID := int32(id)

	user, err := s.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if user == nil {
		return nil, errors.Errorf("user %d not found", userID)
	}
	return user, nil
}
