package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	assert.Equal(t, uint(42), ParseID("42"))
	assert.Equal(t, uint(7), ParseID(" 7 "))
	assert.Equal(t, uint(0), ParseID("-1"))
	assert.Equal(t, uint(0), ParseID("abc"))
	assert.Equal(t, uint(0), ParseID(""))
}
