// Package threatintel keeps the reputation store fed from external blocklists.
package threatintel

import (
	"bufio"
	"io"
	"strings"
)

// DefaultSkipPrefixes are the comment markers and loopback placeholder of host-file feeds
var DefaultSkipPrefixes = []string{"#", ";", "127.0.0.1"}

// Parser extracts candidate entries from line-oriented host-file feeds.
//
// Feeds are expected in "<ip> <domain>" form and the second whitespace token
// is taken as the entry. Lines starting with a skip prefix are ignored, so a
// hostfile whose every line begins with the loopback placeholder yields no
// entries under the default prefixes.
type Parser struct {
	skipPrefixes []string
}

// NewParser creates a parser; nil prefixes select DefaultSkipPrefixes
func NewParser(skipPrefixes []string) *Parser {
	if skipPrefixes == nil {
		skipPrefixes = DefaultSkipPrefixes
	}
	return &Parser{skipPrefixes: skipPrefixes}
}

// Parse returns the distinct entries of a feed body in first-seen order
func (p *Parser) Parse(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var entries []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || p.skipped(line) {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		entry := fields[1]
		if _, ok := seen[entry]; ok {
			continue
		}
		seen[entry] = struct{}{}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (p *Parser) skipped(line string) bool {
	for _, prefix := range p.skipPrefixes {
		if prefix != "" && strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
