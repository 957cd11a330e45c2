package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexdump(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", Hexdump(nil, 8))
	assert.Equal("00 FF 7F", Hexdump([]byte{0x00, 0xFF, 0x7F}, 8))
	assert.Equal("01 02 ...", Hexdump([]byte{1, 2, 3, 4}, 2))
	assert.Equal("01 02 03", Hexdump([]byte{1, 2, 3}, 0))
}
