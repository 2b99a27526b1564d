package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Shadow Slave":              "shadow-slave",
		"  Lord of the Mysteries ":  "lord-of-the-mysteries",
		"Re:Zero - Starting Life":   "rezero-starting-life",
		"The  King's   Avatar!!":    "the-kings-avatar",
		"---":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Re_Zero_ What_", SanitizeFilename("Re:Zero? What*"))
	assert.Equal(t, "untitled", SanitizeFilename("  "))
}

func TestIDPart(t *testing.T) {
	assert.Equal(t, "Shadow_Slave_", IDPart("Shadow Slave!"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "chapter12.json", NovelFile(12))
	assert.Equal(t, "Chapter_007", MangaDir(7))
	assert.Equal(t, "page_010", PageName(10))
}

func TestResolve(t *testing.T) {
	r, err := Resolve(1, -1, 50)
	require.NoError(t, err)
	assert.Equal(t, Range{1, 50}, r)
	assert.Equal(t, 50, r.Len())

	r, err = Resolve(0, 500, 20)
	require.NoError(t, err)
	assert.Equal(t, Range{1, 20}, r)

	_, err = Resolve(10, 5, 100)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Resolve(30, -1, 20)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParseSelection(t *testing.T) {
	got, err := ParseSelection("10-12, 3,1,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 10, 11, 12}, got)

	for _, bad := range []string{"", "5-2", "x", "0"} {
		_, err := ParseSelection(bad)
		assert.ErrorIs(t, err, ErrInvalidRange, bad)
	}
}
