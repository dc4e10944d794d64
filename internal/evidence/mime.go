package evidence

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/mikey/spam-evidence-engine/internal/core"
)

var (
	spfResult   = regexp.MustCompile(`(?i)\bspf\s*=\s*([a-z]+)`)
	dmarcResult = regexp.MustCompile(`(?i)\bdmarc\s*=\s*([a-z]+)`)
)

// FromMIME converts a raw RFC 5322 message into a canonical record
func FromMIME(r io.Reader) (*core.EmailRecord, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	record := &core.EmailRecord{
		MessageID: strings.Trim(env.GetHeader("Message-Id"), "<> "),
		Headers: &core.Headers{
			Subject: env.GetHeader("Subject"),
			From:    env.GetHeader("From"),
			Auth:    ParseAuthenticationResults(env.GetHeaderValues("Authentication-Results")),
		},
		Body: core.Body{
			HTML: env.HTML,
			Text: env.Text,
		},
	}
	return record, nil
}

// ParseAuthenticationResults extracts spf and dmarc results from
// Authentication-Results header values. The first value naming a method wins.
func ParseAuthenticationResults(values []string) *core.AuthResults {
	var auth core.AuthResults
	for _, v := range values {
		if m := spfResult.FindStringSubmatch(v); m != nil && auth.SPF == "" {
			auth.SPF = strings.ToLower(m[1])
		}
		if m := dmarcResult.FindStringSubmatch(v); m != nil && auth.DMARC == "" {
			auth.DMARC = strings.ToLower(m[1])
		}
	}
	if auth.SPF == "" && auth.DMARC == "" {
		return nil
	}
	return &auth
}
