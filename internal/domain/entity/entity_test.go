package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "games", want: CategoryGames},
		{in: " Servers ", want: CategoryServers},
		{in: "GAMES", want: CategoryGames},
		{in: "users", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCategory))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDestination_Enabled(t *testing.T) {
	d := Destination{GuildID: "1", Channels: ChannelConfig{CategoryServers: "22"}}
	assert.Equal(t, []Category{CategoryServers}, d.Enabled())

	d.Channels[CategoryGames] = "11"
	assert.Equal(t, []Category{CategoryGames, CategoryServers}, d.Enabled())

	assert.Empty(t, Destination{GuildID: "1"}.Enabled())
}

func TestLedger_Put(t *testing.T) {
	l := Ledger{"a", "b"}
	l = l.Put(1, "c")
	assert.Equal(t, Ledger{"a", "c"}, l)

	l = l.Put(2, "d")
	assert.Equal(t, Ledger{"a", "c", "d"}, l)
}

func TestLedger_Clone(t *testing.T) {
	orig := Ledger{"a", "b"}
	cp := orig.Clone()
	cp[0] = "z"
	assert.Equal(t, "a", orig[0])
	assert.Nil(t, Ledger(nil).Clone())
}

func TestValidateSnowflake(t *testing.T) {
	assert.NoError(t, ValidateSnowflake("channel_id", "123456789012345678"))

	err := ValidateSnowflake("channel_id", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))

	assert.Error(t, ValidateSnowflake("channel_id", "12ab"))
	assert.Error(t, ValidateSnowflake("channel_id", "123456789012345678901"))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://kaillerareborn.2manygames.fr/game_list.php"},
		{name: "https", url: "https://example.com/server_list.php"},
		{name: "empty", url: "", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/list", wantErr: true},
		{name: "no host", url: "http:///list", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
