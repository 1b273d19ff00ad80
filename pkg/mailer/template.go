package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// Template is a parsed template file: YAML frontmatter metadata plus the
// markdown body. Frontmatter is optional; a file without a leading "---"
// line is all body.
type Template struct {
	Metadata map[string]any
	Body     string
}

// ParseTemplate splits template file content into frontmatter metadata and
// markdown body. The frontmatter block is delimited by "---" lines at the
// very top of the file:
//
//	---
//	Subject: Welcome {{.Name}}
//	---
//	Hello **{{.Name}}**!
func ParseTemplate(content []byte) (*Template, error) {
	if !bytes.HasPrefix(content, frontmatterDelim) {
		return &Template{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, frontmatterDelim), "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: nothing follows the opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, frontmatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("%w: closing delimiter missing", ErrInvalidFrontmatter)
	}

	meta := map[string]any{}
	if head := bytes.TrimSpace(rest[:end]); len(head) > 0 {
		if err := yaml.Unmarshal(head, &meta); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	body := rest[end+len(frontmatterDelim):]
	// Drop the single newline that terminates the closing delimiter line.
	if bytes.HasPrefix(body, []byte("\r\n")) {
		body = body[2:]
	} else if bytes.HasPrefix(body, []byte("\n")) {
		body = body[1:]
	}

	return &Template{Metadata: meta, Body: string(body)}, nil
}
