package generator

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShareLinkFormat(t *testing.T) {
	re := regexp.MustCompile(`^[a-z0-9]{10}$`)
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token := GenerateShareLink()
		assert.Regexp(t, re, token)
		seen[token] = true
	}
	// Collisions across 100 draws from a 36^10 space mean a broken source.
	assert.Len(t, seen, 100)
}

func TestGenerateUUIDIsUnique(t *testing.T) {
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}
