package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTemplate_WithFrontmatter(t *testing.T) {
	t.Parallel()

	content := []byte(`---
Subject: Welcome {{.Name}}
Preheader: short teaser
---
# Hello

Body text.
`)

	tmpl, err := ParseTemplate(content)
	require.NoError(t, err)
	require.Equal(t, "Welcome {{.Name}}", tmpl.Metadata["Subject"])
	require.Equal(t, "short teaser", tmpl.Metadata["Preheader"])
	require.Equal(t, "# Hello\n\nBody text.\n", tmpl.Body)
}

func TestParseTemplate_NoFrontmatter(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseTemplate([]byte("Just a body, no metadata.\n"))
	require.NoError(t, err)
	require.Empty(t, tmpl.Metadata)
	require.Equal(t, "Just a body, no metadata.\n", tmpl.Body)
}

func TestParseTemplate_EmptyFrontmatter(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseTemplate([]byte("---\n---\nBody.\n"))
	require.NoError(t, err)
	require.Empty(t, tmpl.Metadata)
	require.Equal(t, "Body.\n", tmpl.Body)
}

func TestParseTemplate_CRLF(t *testing.T) {
	t.Parallel()

	tmpl, err := ParseTemplate([]byte("---\r\nSubject: Hi\r\n---\r\nBody.\r\n"))
	require.NoError(t, err)
	require.Equal(t, "Hi", tmpl.Metadata["Subject"])
	require.Equal(t, "Body.\r\n", tmpl.Body)
}

func TestParseTemplate_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unterminated frontmatter", "---\nSubject: Hi\nBody with no closing delimiter"},
		{"only opening delimiter", "---"},
		{"bad yaml", "---\n: : :\n---\nBody"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseTemplate([]byte(tt.content))
			require.ErrorIs(t, err, ErrInvalidFrontmatter)
		})
	}
}
