// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gemaraproj/statement-screener/internal/evidence"
)

// Section markers of a detail file.
const (
	urlLabel           = "URL: "
	evidenceHeader     = "\n\nEvidence:\n"
	primaryHeader      = "\nPRIMARY MATCHES FOUND:\n"
	organizationHeader = "\nORGANIZATION VERIFICATION:\n"
	fullTextHeader     = "\nFull Text:\n"
	matchLabel         = "Match: "
)

// ErrMalformedDetail is returned when a detail file cannot be read back.
var ErrMalformedDetail = errors.New("malformed evidence detail file")

// FormatDetail renders the human-readable detail file for ev.
func FormatDetail(ev evidence.Evidence) string {
	var b strings.Builder
	b.WriteString(urlLabel + ev.URL + evidenceHeader)

	b.WriteString(primaryHeader)
	writeMatches(&b, ev.Primary)

	b.WriteString(organizationHeader)
	writeMatches(&b, ev.Organization)

	b.WriteString(fullTextHeader)
	b.WriteString(ev.FullText)
	return b.String()
}

func writeMatches(b *strings.Builder, matches evidence.StageMatches) {
	for _, m := range matches {
		b.WriteString(matchLabel)
		b.WriteString(formatList(m.Values))
		b.WriteByte('\n')
	}
}

// formatList renders values as a bracketed, single-quoted list: ['a', 'b'].
func formatList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + listEscaper.Replace(v) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

var listEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "\t", `\t`)

// Detail is the content of one detail file read back from disk.
type Detail struct {
	URL          string
	Primary      [][]string
	Organization [][]string
	FullText     string
}

// ParseDetail reads back a file produced by FormatDetail.
func ParseDetail(content string) (Detail, error) {
	if !strings.HasPrefix(content, urlLabel) {
		return Detail{}, fmt.Errorf("%w: missing URL line", ErrMalformedDetail)
	}
	rest := content[len(urlLabel):]

	url, rest, ok := strings.Cut(rest, evidenceHeader)
	if !ok {
		return Detail{}, fmt.Errorf("%w: missing evidence header", ErrMalformedDetail)
	}
	rest, ok = strings.CutPrefix(rest, primaryHeader)
	if !ok {
		return Detail{}, fmt.Errorf("%w: missing primary section", ErrMalformedDetail)
	}
	primaryBlock, rest, ok := strings.Cut(rest, organizationHeader)
	if !ok {
		return Detail{}, fmt.Errorf("%w: missing organization section", ErrMalformedDetail)
	}
	organizationBlock, fullText, ok := strings.Cut(rest, fullTextHeader)
	if !ok {
		return Detail{}, fmt.Errorf("%w: missing full text section", ErrMalformedDetail)
	}

	primary, err := parseMatchBlock(primaryBlock)
	if err != nil {
		return Detail{}, err
	}
	organization, err := parseMatchBlock(organizationBlock)
	if err != nil {
		return Detail{}, err
	}

	return Detail{
		URL:          url,
		Primary:      primary,
		Organization: organization,
		FullText:     fullText,
	}, nil
}

func parseMatchBlock(block string) ([][]string, error) {
	var lists [][]string
	for _, line := range strings.Split(block, "\n") {
		if line == "" {
			continue
		}
		raw, ok := strings.CutPrefix(line, matchLabel)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected line %q", ErrMalformedDetail, line)
		}
		values, err := parseList(raw)
		if err != nil {
			return nil, err
		}
		lists = append(lists, values)
	}
	return lists, nil
}

// parseList is the inverse of formatList.
func parseList(raw string) ([]string, error) {
	if len(raw) < 2 || raw[0] != '[' || raw[len(raw)-1] != ']' {
		return nil, fmt.Errorf("%w: bad match list %q", ErrMalformedDetail, raw)
	}
	body := raw[1 : len(raw)-1]

	values := []string{}
	for i := 0; i < len(body); {
		if body[i] != '\'' {
			return nil, fmt.Errorf("%w: expected quote in %q", ErrMalformedDetail, raw)
		}
		i++

		var v strings.Builder
		closed := false
		for i < len(body) {
			c := body[i]
			if c == '\\' && i+1 < len(body) {
				v.WriteByte(unescape(body[i+1]))
				i += 2
				continue
			}
			i++
			if c == '\'' {
				closed = true
				break
			}
			v.WriteByte(c)
		}
		if !closed {
			return nil, fmt.Errorf("%w: unterminated value in %q", ErrMalformedDetail, raw)
		}
		values = append(values, v.String())

		if i < len(body) {
			if !strings.HasPrefix(body[i:], ", ") {
				return nil, fmt.Errorf("%w: expected separator in %q", ErrMalformedDetail, raw)
			}
			i += 2
		}
	}
	return values, nil
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	default:
		return c
	}
}
