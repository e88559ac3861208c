package extractor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

var ErrNoIdentity = errors.New("request carries no valid identity")

// Extractor resolves the creator identity from a bearer token. Operations
// that need authorization receive the resulting user id explicitly; there
// is no ambient current-user state.
type Extractor interface {
	UserIDFromToken(authorizationHeader string) (uint64, error)
}

type extractor struct {
	secret []byte
}

func New() Extractor {
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	return &extractor{secret: []byte(viper.GetString("auth.jwt_secret"))}
}

func (e *extractor) UserIDFromToken(authorizationHeader string) (uint64, error) {
	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		return 0, ErrNoIdentity
	}
	raw := strings.TrimPrefix(authorizationHeader, "Bearer ")
	if raw == "" {
		return 0, ErrNoIdentity
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return e.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrNoIdentity
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrNoIdentity
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrNoIdentity
	}

	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, ErrNoIdentity
	}
	return userID, nil
}
