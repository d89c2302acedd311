package respond

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain", errors.New("channel not found"), "channel not found"},
		{
			"dsn password",
			errors.New("dial postgres://klist:s3cr3t@db:5432/klist failed"),
			"dial postgres://klist:****@db:5432/klist failed",
		},
		{
			"bot authorization header",
			errors.New("request with Bot MTIzNDU2Nzg5MDEyMzQ1Njc4.GabcDE.abcdefghijklmnopqrstuvwxyz123 rejected"),
			"request with Bot **** rejected",
		},
		{
			"bare discord token",
			errors.New("token MTIzNDU2Nzg5MDEyMzQ1Njc4.GabcDE.abcdefghijklmnopqrstuvwxyz123 invalid"),
			"token **** invalid",
		},
		{
			"bearer admin token",
			errors.New("Authorization: Bearer hunter2hunter2"),
			"Authorization: Bearer ****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeError(tt.err))
		})
	}
}
