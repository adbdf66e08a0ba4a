package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	assert.Equal(t, "dev", GetVersion())
	assert.Equal(t, "none", GetCommit())
	assert.Equal(t, "unknown", GetBuildDate())
}

func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, "dev (commit none, built unknown, ")
}
