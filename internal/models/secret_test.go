package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretName(t *testing.T) {
	assert.Equal(t, "oauth2___alice", SecretName(SecretTypeOAuth2, "alice"))
	assert.Equal(t, "client_secrets___bob@corp", SecretName(SecretTypeClientSecrets, "bob@corp"))
}

func TestValidSecretType(t *testing.T) {
	for _, st := range SecretTypes {
		assert.True(t, ValidSecretType(st), "type %s", st)
	}
	assert.False(t, ValidSecretType("oauth3"))
	assert.False(t, ValidSecretType(""))
}
