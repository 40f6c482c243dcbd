package jwtgen

import (
	"regexp"
	"strings"
)

const (
	pemMinLength = 20
	pemLineWidth = 64
)

var (
	pemHeaderPattern = regexp.MustCompile(`-----BEGIN ([A-Z0-9 \-]+?)-----`)
	pemFooterPattern = regexp.MustCompile(`-----END ([A-Z0-9 \-]+?)-----`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// NormalizePEM turns PEM text that may have been flattened onto a single line
// (YAML scalars, environment variables) back into canonical line-wrapped PEM.
//
// Text that already contains a line break is returned as-is with a trailing
// newline ensured. Single-line text must carry BEGIN and END markers; the body
// between them is stripped of whitespace and wrapped at 64 columns.
func NormalizePEM(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < pemMinLength {
		return nil, newError(ErrCodeKeyMaterial, "PEM is empty or too short")
	}

	if strings.Contains(trimmed, "\n") {
		if !strings.HasSuffix(trimmed, "\n") {
			trimmed += "\n"
		}
		return []byte(trimmed), nil
	}

	header := pemHeaderPattern.FindString(trimmed)
	footer := pemFooterPattern.FindString(trimmed)
	if header == "" || footer == "" {
		return nil, newError(ErrCodeKeyMaterial, "PEM does not contain valid BEGIN/END markers")
	}

	body := strings.ReplaceAll(trimmed, header, "")
	body = strings.ReplaceAll(body, footer, "")

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(wrapLines(whitespace.ReplaceAllString(body, ""), pemLineWidth))
	b.WriteByte('\n')
	b.WriteString(footer)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func wrapLines(s string, width int) string {
	if len(s) <= width {
		return s
	}
	lines := make([]string, 0, len(s)/width+1)
	for len(s) > width {
		lines = append(lines, s[:width])
		s = s[width:]
	}
	if s != "" {
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}
