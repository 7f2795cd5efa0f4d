package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/jwt"
)

func TestAuthJwt(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	auth := NewAuthService(&domain.Config{FQDN: "biomap.test"}, secret)
	ctx := context.Background()

	token, err := auth.IssueToken(ctx, domain.Requester{ID: "moderator", IsAdmin: true}, time.Hour)
	require.NoError(t, err)

	requester, err := auth.AuthJwt(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, domain.Requester{ID: "moderator", IsAdmin: true}, requester)

	foreign, err := jwt.Create("moderator", true, "elsewhere.test", time.Hour, secret)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, foreign)
	assert.Error(t, err)

	_, err = auth.AuthJwt(ctx, "")
	assert.Error(t, err)
}

func TestAuthJwtUsesConfiguredIssuer(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	auth := NewAuthService(&domain.Config{FQDN: "map.example.org", Issuer: "auth.example.org"}, secret)
	ctx := context.Background()

	token, err := auth.IssueToken(ctx, domain.Requester{ID: "moderator", IsAdmin: true}, time.Hour)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, token)
	require.NoError(t, err)

	external, err := jwt.Create("moderator", true, "auth.example.org", time.Hour, secret)
	require.NoError(t, err)
	requester, err := auth.AuthJwt(ctx, external)
	require.NoError(t, err)
	assert.Equal(t, "moderator", requester.ID)

	byNode, err := jwt.Create("moderator", true, "map.example.org", time.Hour, secret)
	require.NoError(t, err)
	_, err = auth.AuthJwt(ctx, byNode)
	assert.Error(t, err)
}
