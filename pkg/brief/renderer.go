package brief

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"
)

// Renderer turns brief content into a stored document and returns its reference.
type Renderer interface {
	Render(ctx context.Context, c Content) (string, error)
}

const markdownTemplate = `# {{ .Title }}

- Case: {{ .CaseID }}
- Client: {{ .ClientID }}
- Generated: {{ .GeneratedAt.Format "2006-01-02 15:04 MST" }}
{{- if eq (print .Audience) "planner" }}
- Priority: {{ .Priority }}/100
{{- end }}
{{ range .Sections }}
## {{ .Heading }}
{{ range .Lines }}
- {{ . }}
{{- end }}
{{ end }}`

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileRenderer writes markdown briefs under a directory.
type FileRenderer struct {
	dir  string
	tmpl *template.Template
}

func NewFileRenderer(dir string) (*FileRenderer, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("brief").Parse(markdownTemplate)
	if err != nil {
		return nil, err
	}
	return &FileRenderer{dir: abs, tmpl: tmpl}, nil
}

func FileName(caseID string, a Audience) string {
	return fmt.Sprintf("brief_%s_%s.md", unsafeFileChars.ReplaceAllString(caseID, "_"), a)
}

func (r *FileRenderer) Render(ctx context.Context, c Content) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("render brief: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(r.dir, FileName(c.CaseID, c.Audience))
	tmp, err := os.CreateTemp(r.dir, ".brief-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	return "file://" + target, nil
}
