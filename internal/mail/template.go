// Package mail renders the transactional email templates and delivers them
// over SMTP
package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"
)

var ErrTemplateNotFound = errors.New("email template not found")

//go:embed email_templates/*.md
var embedded embed.FS

const (
	headerFile = "header.md"
	footerFile = "footer.md"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Values come from users (nicknames, names), so they land in the markdown as
// plain text. Backslash escapes also hold inside link destinations.
var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"(", `\(`, ")", `\)`, "<", `\<`, ">", `\>`, "#", `\#`, "!", `\!`,
	"|", `\|`, "~", `\~`, "{", `\{`, "}", `\}`, "\r", " ", "\n", " ",
)

// TemplateManager turns markdown fragments into styled HTML email bodies.
// Every email is header.md + <name>.md + footer.md.
type TemplateManager struct {
	fsys fs.FS
	md   goldmark.Markdown
}

func NewTemplateManager(fsys fs.FS) *TemplateManager {
	return &TemplateManager{
		fsys: fsys,
		md:   goldmark.New(),
	}
}

// DefaultTemplates returns the templates shipped with the binary, or the ones
// found in dir when it's set
func DefaultTemplates(dir string) fs.FS {
	if dir != "" {
		zap.L().Debug("Using email templates from disk", zap.String("dir", dir))
		return os.DirFS(dir)
	}

	sub, err := fs.Sub(embedded, "email_templates")
	if err != nil {
		// The embed pattern guarantees the directory exists
		panic(err)
	}

	return sub
}

func (t *TemplateManager) readTemplate(name string) (string, error) {
	b, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}

		return "", fmt.Errorf("failed to read template %s, %w", name, err)
	}

	return string(b), nil
}

// RenderTemplate renders the template called name with vars substituted into
// its {placeholders}. Placeholders without a value are left untouched.
func (t *TemplateManager) RenderTemplate(name string, vars map[string]string) (string, error) {
	header, err := t.readTemplate(headerFile)
	if err != nil {
		return "", err
	}

	footer, err := t.readTemplate(footerFile)
	if err != nil {
		return "", err
	}

	body, err := t.readTemplate(name + ".md")
	if err != nil {
		return "", err
	}

	body = substitute(body, vars)

	var buf bytes.Buffer
	if err := t.md.Convert([]byte(header+"\n\n"+body+"\n\n"+footer), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown, %w", err)
	}

	return ApplyEmailStyles(buf.String())
}

func substitute(s string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return mdEscaper.Replace(v)
		}

		return m
	})
}
