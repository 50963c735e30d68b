package all

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/flowir/internal/frontend"
)

func TestBuiltinLanguagesRegistered(t *testing.T) {
	assert.Equal(t, []string{"c", "go", "javascript", "python"}, frontend.Languages())
}

func TestUnknownLanguageNamesAvailableKeys(t *testing.T) {
	_, err := frontend.Resolve("cobol")
	assert.True(t, frontend.IsLookupError(err))
	assert.EqualError(t, err, `LOOKUP: no parser registered for language "cobol"; available: c, go, javascript, python`)
}
