package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestProviderPrefersLanguage(t *testing.T) {
	list := []Provider{
		{ID: "a", Language: "es"},
		{ID: "b", Language: "en"},
		{ID: "c", Language: "en"},
	}

	p, ok := BestProvider(list, "en")
	assert.True(t, ok)
	assert.Equal(t, "b", p.ID)

	p, _ = BestProvider(list, "de")
	assert.Equal(t, "a", p.ID)

	_, ok = BestProvider(nil, "en")
	assert.False(t, ok)
}
