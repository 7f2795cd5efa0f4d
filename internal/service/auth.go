package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/jwt"
)

var tracer = otel.Tracer("service")

type AuthService struct {
	config *domain.Config
	secret []byte
}

func NewAuthService(
	config *domain.Config,
	secret []byte,
) *AuthService {
	return &AuthService{
		config: config,
		secret: secret,
	}
}

// AuthJwt turns a bearer token into a Requester. Tokens must be issued by this node.
func (s *AuthService) AuthJwt(ctx context.Context, token string) (domain.Requester, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	if token == "" {
		err := fmt.Errorf("empty token")
		span.RecordError(err)
		return domain.Requester{}, err
	}

	claims, err := jwt.Validate(token, s.config.TokenIssuer(), s.secret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return domain.Requester{}, err
	}

	return domain.Requester{
		ID:      claims.Subject,
		IsAdmin: claims.IsAdmin,
	}, nil
}

// IssueToken signs a token that AuthJwt on this node accepts.
func (s *AuthService) IssueToken(ctx context.Context, requester domain.Requester, ttl time.Duration) (string, error) {
	_, span := tracer.Start(ctx, "Auth.Service.IssueToken")
	defer span.End()

	token, err := jwt.Create(requester.ID, requester.IsAdmin, s.config.TokenIssuer(), ttl, s.secret)
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "failed to sign token")
	}
	return token, nil
}
