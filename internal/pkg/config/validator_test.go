package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  bool
	}{
		{"every descriptor", "@every 60s", false},
		{"every compound", "@every 1h30m", false},
		{"hourly descriptor", "@hourly", false},
		{"five fields", "*/5 * * * *", false},
		{"empty", "", true},
		{"too few fields", "0 0", true},
		{"invalid minute", "60 0 * * *", true},
		{"bad every", "@every soon", true},
		{"random text", "invalid format", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchedule(tt.schedule)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid schedule")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		name    string
		d       time.Duration
		min     time.Duration
		max     time.Duration
		wantErr string
	}{
		{"at minimum", 10 * time.Second, 10 * time.Second, time.Hour, ""},
		{"at maximum", time.Hour, 10 * time.Second, time.Hour, ""},
		{"inside", time.Minute, 10 * time.Second, time.Hour, ""},
		{"below", time.Second, 10 * time.Second, time.Hour, "below minimum"},
		{"above", 2 * time.Hour, 10 * time.Second, time.Hour, "exceeds maximum"},
		{"inverted range", time.Minute, time.Hour, time.Second, "invalid range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDuration(tt.d, tt.min, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(1, 1, 32))
	assert.NoError(t, ValidateIntRange(32, 1, 32))
	assert.ErrorContains(t, ValidateIntRange(0, 1, 32), "below minimum")
	assert.ErrorContains(t, ValidateIntRange(33, 1, 32), "exceeds maximum")
	assert.ErrorContains(t, ValidateIntRange(5, 10, 1), "invalid range")
}

func TestValidateFloatRange(t *testing.T) {
	assert.NoError(t, ValidateFloatRange(10, 0.1, 50))
	assert.NoError(t, ValidateFloatRange(0.1, 0.1, 50))
	assert.ErrorContains(t, ValidateFloatRange(0, 0.1, 50), "below minimum")
	assert.ErrorContains(t, ValidateFloatRange(51, 0.1, 50), "exceeds maximum")
	assert.ErrorContains(t, ValidateFloatRange(1, 2, 1), "invalid range")
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.ErrorContains(t, ValidatePositiveDuration(0), "must be positive")
	assert.ErrorContains(t, ValidatePositiveDuration(-time.Second), "must be positive")
}

func TestValidateOneOf(t *testing.T) {
	validate := ValidateOneOf("file", "postgres")

	assert.NoError(t, validate("file"))
	assert.NoError(t, validate("postgres"))

	err := validate("sqlite")
	require.Error(t, err)
	assert.Equal(t, "must be one of [file, postgres]", err.Error())
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"http", "http://kaillerareborn.2manygames.fr/game_list.php", false},
		{"https with port", "https://example.com:8443/server_list.php", false},
		{"ftp scheme", "ftp://example.com/list", true},
		{"relative", "/game_list.php", true},
		{"no host", "http://", true},
		{"unparsable", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHTTPURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
