package secretshare

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signAuthToken creates the signed token set as a cookie beside the
// session on login. The token only carries the user id; everything
// else is re-read from the store per request.
func signAuthToken(secretKey, issuer, userID string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iss": issuer,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secretKey))
}

// verifyAuthToken parses a signed auth token and returns the user id
// it was issued for.
func verifyAuthToken(secretKey, issuer, tokenString string) (userID string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return "", fmt.Errorf("claims is not a map")
	}
	if issuer != "" {
		if iss, err := claims.GetIssuer(); err != nil || iss != issuer {
			return "", fmt.Errorf("invalid issuer")
		}
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("subject not found")
	}
	return sub, nil
}
