package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spiralapp/journal/internal/common"
)

// Claims carries the standard registered claims plus the profile ID the
// token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	ProfileID string
}

// GenerateToken signs an HS256 session token for profileID.
func GenerateToken(profileID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		ProfileID: profileID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetProfileIDFromToken verifies tokenString and extracts the profile ID.
func GetProfileIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.ProfileID, nil
}
