package authsvc

import (
	"context"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var errNoSecret = errors.New("jwt secret is not configured")

// Claims of the access tokens issued by the BaaS auth API.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// JWTVerifier verifies BaaS access tokens locally with the project's JWT secret.
type JWTVerifier struct {
	secret   []byte
	audience string
}

var _ core.AuthVerifier = (*JWTVerifier)(nil)

func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (core.Identity, error) {
	if len(v.secret) == 0 {
		return core.Identity{}, errNoSecret
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !tkn.Valid {
		return core.Identity{}, errors.Wrap(core.ErrInvalidToken, errMsg(err))
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return core.Identity{}, errors.Wrap(core.ErrInvalidToken, "unexpected audience")
	}
	if claims.Subject == "" {
		return core.Identity{}, errors.Wrap(core.ErrInvalidToken, "missing subject")
	}
	return core.Identity{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

func errMsg(err error) string {
	if err == nil {
		return "invalid token"
	}
	return err.Error()
}
