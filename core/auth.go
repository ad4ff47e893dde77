package core

import "context"

type (
	// Identity is who the BaaS says owns an access token.
	Identity struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}

	// AuthVerifier validates bearer tokens issued by the BaaS.
	// Implementations return ErrInvalidToken (possibly wrapped) for rejected tokens.
	AuthVerifier interface {
		Verify(ctx context.Context, token string) (Identity, error)
	}
)
