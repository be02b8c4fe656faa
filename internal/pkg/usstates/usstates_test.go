package usstates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "TX", Code("texas"))
	assert.Equal(t, "NY", Code("  New   York "))
	assert.Equal(t, "CA", Code("ca"))
	assert.Equal(t, "ATLANTIS", Code("Atlantis"))
}

func TestKnown(t *testing.T) {
	assert.True(t, Known("Texas"))
	assert.True(t, Known("tx"))
	assert.False(t, Known("Austin"))
}
