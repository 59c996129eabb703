// Package auth implements the shared-secret gate in front of the admin
// and listening pages. There are no accounts and no sessions; each page
// submits its secret and gets an allow/deny answer.
package auth

import "errors"

// Role names which configured secret a submission is checked against.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

var (
	// ErrNotConfigured means the server has no secret for the requested
	// role. This is a deployment problem, not a wrong password.
	ErrNotConfigured = errors.New("auth: no secret configured for role")

	// ErrWrongSecret means the submitted secret did not match.
	ErrWrongSecret = errors.New("auth: wrong secret")

	// ErrUnknownRole means the request named a role that does not exist.
	ErrUnknownRole = errors.New("auth: unknown role")
)

// Gate holds the configured secrets. Either may be empty, which makes the
// corresponding role unusable until configured.
type Gate struct {
	adminSecret  string
	viewerSecret string
}

// NewGate builds a gate from the configured secrets.
func NewGate(adminSecret, viewerSecret string) *Gate {
	return &Gate{adminSecret: adminSecret, viewerSecret: viewerSecret}
}

// Check compares the submitted secret against the role's configured one.
// nil means allow. The comparison is a plain equality test; lockout and
// timing hardening are out of scope for a single-operator deployment.
func (g *Gate) Check(submitted string, role Role) error {
	var want string
	switch role {
	case RoleAdmin:
		want = g.adminSecret
	case RoleViewer:
		want = g.viewerSecret
	default:
		return ErrUnknownRole
	}
	if want == "" {
		return ErrNotConfigured
	}
	if submitted != want {
		return ErrWrongSecret
	}
	return nil
}
