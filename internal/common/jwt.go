package common

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// SetJWTSecret overrides the signing secret. Called once at startup from
// config; tests use it to install a known secret.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func signingSecret() []byte {
	if len(jwtSecret) == 0 {
		jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	}
	if len(jwtSecret) == 0 {
		jwtSecret = []byte("fallback_secret")
	}
	return jwtSecret
}

// Claims carried in every bearer token: the principal's ID plus which side
// of the marketplace they are on.
type Claims struct {
	UserID   string   `json:"user_id"`
	UserType UserType `json:"user_type"`
	jwt.RegisteredClaims
}

func GenerateToken(userID string, userType UserType) (string, error) {
	claims := &Claims{
		UserID:   userID,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "innovatefund",
			Subject:   "user-auth",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingSecret())
}

func ValidToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &AuthenticationError{Reason: "unexpected signing method"}
		}
		return signingSecret(), nil
	})
	if err != nil {
		return nil, &AuthenticationError{Reason: err.Error()}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, &AuthenticationError{Reason: "invalid token"}
	}
	return claims, nil
}
