// Package status holds the account status values shared by the user store,
// the session fetcher, and the sign-in flow.
package status

// Account status values.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid reports whether s is a recognized status. Matching is exact;
// normalize input first.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

// Default is the status given to new accounts.
func Default() string {
	return Active
}

// CanSignIn reports whether an account with status s may start a session.
func CanSignIn(s string) bool {
	return s == Active
}
