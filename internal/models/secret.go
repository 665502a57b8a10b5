package models

import "time"

// SecretType identifies one of the GAM credential files.
type SecretType string

// The three credential blobs GAM needs to talk to Google Workspace.
const (
	SecretTypeClientSecrets SecretType = "client_secrets"
	SecretTypeOAuth2        SecretType = "oauth2"
	SecretTypeOAuth2Service SecretType = "oauth2service"
)

// SecretTypes lists all credential types in display order.
var SecretTypes = []SecretType{
	SecretTypeClientSecrets,
	SecretTypeOAuth2,
	SecretTypeOAuth2Service,
}

// ValidSecretType returns true for a known credential type.
func ValidSecretType(t SecretType) bool {
	switch t {
	case SecretTypeClientSecrets, SecretTypeOAuth2, SecretTypeOAuth2Service:
		return true
	}
	return false
}

// SecretName returns the store name for a user's credential,
// e.g. "client_secrets___alice".
func SecretName(t SecretType, userID string) string {
	return string(t) + "___" + userID
}

// SecretStatus describes whether a single credential has been uploaded.
type SecretStatus struct {
	Type      SecretType `json:"type"`
	Uploaded  bool       `json:"uploaded"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// SecretsStatus is the per-user status of all three credentials.
type SecretsStatus struct {
	UserID  string         `json:"userId"`
	Secrets []SecretStatus `json:"secrets"`
	Ready   bool           `json:"ready"` // all three uploaded
}
