// internal/domain/models/authmethods.go
package models

// AuthProvider describes an external sign-in provider option for the UI.
type AuthProvider struct {
	Value string // Provider key used in routes and identity records
	Label string // Display name shown on the login page
}

// External sign-in provider keys.
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
	ProviderFacebook  = "facebook"
)

// AllAuthProviders lists the supported external providers in login-page order.
var AllAuthProviders = []AuthProvider{
	{Value: ProviderGoogle, Label: "Google"},
	{Value: ProviderMicrosoft, Label: "Microsoft"},
	{Value: ProviderFacebook, Label: "Facebook"},
}

// IsValidAuthProvider checks if a value is a supported provider key.
func IsValidAuthProvider(value string) bool {
	for _, p := range AllAuthProviders {
		if p.Value == value {
			return true
		}
	}
	return false
}

// AuthProviderLabel returns the display label for a provider key,
// or the key itself if unknown.
func AuthProviderLabel(value string) string {
	for _, p := range AllAuthProviders {
		if p.Value == value {
			return p.Label
		}
	}
	return value
}
