package authsvc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/services/baas"
)

// RemoteVerifier asks the BaaS auth API who owns a token. Revoked sessions are rejected.
type RemoteVerifier struct {
	client *baas.Client
}

var _ core.AuthVerifier = (*RemoteVerifier)(nil)

func NewRemoteVerifier(client *baas.Client) *RemoteVerifier {
	return &RemoteVerifier{client: client}
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (core.Identity, error) {
	res, err := v.client.Send(ctx, baas.Request{Method: rest.Get, Path: "/auth/v1/user", BearerToken: token})
	if err != nil {
		switch baas.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return core.Identity{}, errors.Wrap(core.ErrInvalidToken, err.Error())
		}
		return core.Identity{}, errors.Wrap(err, "verifying token")
	}

	var ident core.Identity
	if err = json.Unmarshal([]byte(res.Body), &ident); err != nil {
		return core.Identity{}, errors.Wrap(err, "decoding auth user")
	}
	if ident.ID == "" {
		return core.Identity{}, errors.Wrap(core.ErrInvalidToken, "unknown user")
	}
	return ident, nil
}
