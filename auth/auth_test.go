package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"beatdrop/auth"
)

func TestGateCheck(t *testing.T) {
	t.Parallel()

	gate := auth.NewGate("admin-secret", "viewer-secret")

	require.NoError(t, gate.Check("admin-secret", auth.RoleAdmin))
	require.NoError(t, gate.Check("viewer-secret", auth.RoleViewer))

	// The admin secret does not open the viewer gate.
	require.ErrorIs(t, gate.Check("admin-secret", auth.RoleViewer), auth.ErrWrongSecret)
	require.ErrorIs(t, gate.Check("viewer-secret", auth.RoleAdmin), auth.ErrWrongSecret)
	require.ErrorIs(t, gate.Check("nope", auth.RoleAdmin), auth.ErrWrongSecret)
	require.ErrorIs(t, gate.Check("", auth.RoleAdmin), auth.ErrWrongSecret)

	require.ErrorIs(t, gate.Check("x", auth.Role("editor")), auth.ErrUnknownRole)
}

func TestGateUnconfiguredRole(t *testing.T) {
	t.Parallel()

	gate := auth.NewGate("admin-secret", "")
	require.NoError(t, gate.Check("admin-secret", auth.RoleAdmin))

	// Missing viewer secret is a misconfiguration, distinct from a wrong
	// password - even an empty submission must not slip through.
	require.ErrorIs(t, gate.Check("anything", auth.RoleViewer), auth.ErrNotConfigured)
	require.ErrorIs(t, gate.Check("", auth.RoleViewer), auth.ErrNotConfigured)
}
