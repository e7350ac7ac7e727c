package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePingURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantNil bool
		wantErr bool
	}{
		{name: "empty is unset", raw: "", wantNil: true},
		{name: "https", raw: "https://hc.example/ping/abc123", want: "https://hc.example/ping/abc123"},
		{name: "relative reference is a valid uri", raw: "ping/abc123", want: "ping/abc123"},
		{name: "unterminated ipv6 host", raw: "http://[::1", wantErr: true},
		{name: "bad escape", raw: "https://hc.example/%zz", wantErr: true},
		{name: "missing scheme", raw: "://hc.example", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := ParsePingURL(tc.raw)

			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidPingURL)
				assert.Nil(t, u)
				return
			}

			require.NoError(t, err)
			if tc.wantNil {
				assert.Nil(t, u)
				return
			}
			require.NotNil(t, u)
			assert.Equal(t, tc.want, u.String())
		})
	}
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{name: "in range", limit: 10, offset: 20, wantLimit: 10, wantOffset: 20},
		{name: "zero limit", limit: 0, offset: 0, wantLimit: DefaultLimit, wantOffset: 0},
		{name: "negative limit", limit: -1, offset: 0, wantLimit: DefaultLimit, wantOffset: 0},
		{name: "limit above max is capped", limit: 1000, offset: 5, wantLimit: MaxLimit, wantOffset: 5},
		{name: "limit just above max", limit: MaxLimit + 1, offset: 0, wantLimit: MaxLimit, wantOffset: 0},
		{name: "max limit kept", limit: MaxLimit, offset: 0, wantLimit: MaxLimit, wantOffset: 0},
		{name: "negative offset", limit: 10, offset: -3, wantLimit: 10, wantOffset: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := NormalizePage(tc.limit, tc.offset)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
		})
	}
}
