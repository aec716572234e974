package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/aegis/momentum/internal/contracts"
)

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgresql://quant:s3cret@db:5432/momentum", "postgresql://quant:%2A%2A%2A@db:5432/momentum"},
		{"postgresql://db:5432/momentum", "postgresql://db:5432/momentum"},
		{"postgresql://quant@db/momentum", "postgresql://quant@db/momentum"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskPassword(tt.in))
	}
}

func TestJoinSecurities(t *testing.T) {
	assert.Equal(t, "-", joinSecurities(nil))
	assert.Equal(t, "AAPL, MSFT", joinSecurities([]contracts.Security{"AAPL", "MSFT"}))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
}
