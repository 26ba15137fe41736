package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLoginRequestValidate(t *testing.T) {
	assert.NoError(t, UserLoginRequest{Email: "ana@example.com", Password: "secret"}.Validate())
	assert.Error(t, UserLoginRequest{Email: "ana", Password: "secret"}.Validate())
	assert.Error(t, UserLoginRequest{Email: "ana@example.com"}.Validate())
}

func TestPasswordChangeRequestValidate(t *testing.T) {
	assert.NoError(t, PasswordChangeRequest{Password: "old", NewPassword: "new-secret"}.Validate())
	assert.Error(t, PasswordChangeRequest{Password: "old", NewPassword: "short"}.Validate())
	assert.Error(t, PasswordChangeRequest{NewPassword: "new-secret"}.Validate())

	// 40 runes pass a rune count but take 80 bytes.
	assert.Error(t, PasswordChangeRequest{Password: "old", NewPassword: strings.Repeat("ü", 40)}.Validate())
	assert.NoError(t, PasswordChangeRequest{Password: "old", NewPassword: strings.Repeat("ü", 36)}.Validate())
}

func TestEnvelopeConstructors(t *testing.T) {
	assert.Equal(t, Envelope{Status: "fail", Message: "token missing"}, Fail("token missing"))
	assert.Equal(t, Envelope{Status: "error", Message: "down"}, Error("down"))
	assert.Equal(t, "success", Success("ok", 1).Status)
}
