package files

import (
	"regexp"
	"testing"
	"time"

	"artifact-store/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyGrammar = regexp.MustCompile(`^users/[^/]+/[^/]+/\d{2}-\d{2}-\d{4}/[0-9a-f]{32}\.[a-z0-9]+$`)

func TestGenerateKey_UniqueAndWellFormed(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		key, err := GenerateKey("user-42", "recipes", "photo.JPG")
		require.NoError(t, err)
		require.Regexp(t, keyGrammar, key)

		_, dup := seen[key]
		require.False(t, dup, "duplicate key %s", key)
		seen[key] = struct{}{}
	}
}

func TestGenerateKey_UsesUTCDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2025-10-01 05:00 at UTC+10 is still 30 September in UTC.
	now := time.Date(2025, 10, 1, 5, 0, 0, 0, loc)

	key, err := generateKey("u1", "docs", "report.pdf", now)
	require.NoError(t, err)
	assert.Regexp(t, `^users/u1/docs/30-09-2025/[0-9a-f]{32}\.pdf$`, key)
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.png", ".png"},
		{"Photo.JPEG", ".jpeg"},
		{"archive.tar.gz", ".gz"},
		{"README", ".bin"},
		{"trailing.", ".bin"},
		{".env", ".bin"},
		{".config.yaml", ".yaml"},
		{"dir.d/file", ".bin"},
		{`C:\Users\me\scan.pdf`, ".pdf"},
		{"weird.p n g", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, extension(tt.filename))
		})
	}
}

func TestGenerateKey_Validation(t *testing.T) {
	tests := []struct {
		name     string
		owner    string
		category string
		filename string
	}{
		{"EmptyOwner", "", "recipes", "a.png"},
		{"EmptyCategory", "u1", "", "a.png"},
		{"EmptyFilename", "u1", "recipes", ""},
		{"BlankFilename", "u1", "recipes", "   "},
		{"SlashInOwner", "u1/../u2", "recipes", "a.png"},
		{"SlashInCategory", "u1", "a/b", "a.png"},
		{"DotDotCategory", "u1", "..", "a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := GenerateKey(tt.owner, tt.category, tt.filename)
			assert.Empty(t, key)
			assert.ErrorIs(t, err, storage.ErrValidation)
		})
	}
}

func TestListPrefix(t *testing.T) {
	tests := []struct {
		name     string
		category string
		date     string
		want     string
	}{
		{"OwnerOnly", "", "", "users/u1/"},
		{"DateWithoutCategory", "", "01-10-2025", "users/u1/"},
		{"Category", "recipes", "", "users/u1/recipes/"},
		{"CategoryAndDate", "recipes", "01-10-2025", "users/u1/recipes/01-10-2025"},
		{"PartialDate", "recipes", "01-10", "users/u1/recipes/01-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListPrefix("u1", tt.category, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ListPrefix("", "", "")
	assert.ErrorIs(t, err, storage.ErrValidation)
	_, err = ListPrefix("u1", "recipes", "01/10")
	assert.ErrorIs(t, err, storage.ErrValidation)
}
