package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/biomap/internal/domain"
)

var tracer = otel.Tracer("auth")

type Authenticator interface {
	AuthJwt(ctx context.Context, token string) (domain.Requester, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyIdentity attaches the requester named by the bearer token.
// A missing or invalid token leaves the request anonymous.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		requester := domain.Requester{}

		authHeader := c.Request().Header.Get("authorization")
		if authHeader == "" {
			// browsers cannot set headers on websocket upgrades
			if token := c.QueryParam("token"); token != "" {
				authHeader = "Bearer " + token
			}
		}

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 {
				span.RecordError(fmt.Errorf("invalid authentication header"))
				goto skipCheckAuthorization
			}

			authType, token := split[0], split[1]
			if authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			result, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				goto skipCheckAuthorization
			}

			requester = result
			span.SetAttributes(
				attribute.String("RequesterId", result.ID),
				attribute.Bool("RequesterIsAdmin", result.IsAdmin),
			)
		}

	skipCheckAuthorization:
		ctx = domain.WithRequester(ctx, requester)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
