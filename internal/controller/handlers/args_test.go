package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandArgument(t *testing.T) {
	tests := map[string]string{
		"/get_code @ivan_petrov":           "@ivan_petrov",
		"/get_code@relay_bot @ivan_petrov": "@ivan_petrov",
		"/get_code   ivan@gmail.com  ":     "ivan@gmail.com",
		"/get_code":                        "",
		"@ivan_petrov":                     "@ivan_petrov",
	}
	for in, want := range tests {
		assert.Equal(t, want, commandArgument(in), in)
	}
}

func TestIsBareHandle(t *testing.T) {
	assert.True(t, isBareHandle("@ivan_petrov"))
	assert.True(t, isBareHandle(" @Ivan5 "))
	assert.False(t, isBareHandle("@ivan"), "too short for a Telegram username")
	assert.False(t, isBareHandle("ivan_petrov"))
	assert.False(t, isBareHandle("@ivan petrov"))
	assert.False(t, isBareHandle("ivan@gmail.com"))
}
