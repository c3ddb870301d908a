// Copyright (c) 2026 OpenShelf. All rights reserved.

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/openshelf/internal/platform/ctxutil"
	"github.com/openshelf/openshelf/internal/platform/sec"
)

/*
TestRequestID tests storing and retrieving a request ID.
*/
func TestRequestID(t *testing.T) {
	ctx := context.Background()

	// Missing ID yields an empty string.
	assert.Equal(t, "", ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", ctxutil.GetRequestID(ctx))
}

/*
TestLogger tests the logger fallback behavior.
*/
func TestLogger(t *testing.T) {
	ctx := context.Background()

	// Without an attached logger the global default is returned.
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestAuthUser tests storing and retrieving API token claims.
*/
func TestAuthUser(t *testing.T) {
	ctx := context.Background()

	// Anonymous context yields nil.
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	claims := &sec.AuthClaims{UserID: "subject-1", Username: "ada", Role: "user"}
	ctx = ctxutil.WithAuthUser(ctx, claims)

	got := ctxutil.GetAuthUser(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "subject-1", got.UserID)
	assert.Equal(t, "ada", got.Username)
	assert.Equal(t, "user", got.Role)
}
