// Package evidence turns canonical email records into normalized evidence.
package evidence

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/mikey/spam-evidence-engine/internal/core"
	"golang.org/x/net/html"
)

var angleAddress = regexp.MustCompile(`<([\w.\-+]+@[\w.\-]+)>`)

// Extractor is a pure, deterministic core.Extractor
type Extractor struct{}

// NewExtractor creates a new evidence extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract derives evidence from a record without any I/O
func (e *Extractor) Extract(record *core.EmailRecord) *core.Evidence {
	headers := record.Headers
	if headers == nil {
		headers = &core.Headers{}
	}

	hrefs := AnchorHrefs(record.Body.HTML)
	return &core.Evidence{
		SenderDomain: SenderDomain(headers.From),
		LinkDomains:  LinkDomains(hrefs),
		Hrefs:        hrefs,
		AuthFailed:   AuthFailed(headers.Auth),
		Subject:      headers.Subject,
		Body:         PlainText(record.Body),
	}
}

// SenderDomain returns the lower-cased domain of the from header, or "" when
// no address can be found.
func SenderDomain(from string) string {
	address := ""
	if m := angleAddress.FindStringSubmatch(from); m != nil {
		address = m[1]
	} else if strings.Contains(from, "@") {
		address = strings.TrimSpace(from)
	}
	if address == "" {
		return ""
	}

	at := strings.LastIndex(address, "@")
	return strings.ToLower(strings.TrimSpace(address[at+1:]))
}

// AuthFailed reports whether spf or dmarc contains "fail". Missing results
// count as pass.
func AuthFailed(auth *core.AuthResults) bool {
	spf, dmarc := "pass", "pass"
	if auth != nil {
		if auth.SPF != "" {
			spf = auth.SPF
		}
		if auth.DMARC != "" {
			dmarc = auth.DMARC
		}
	}
	return strings.Contains(strings.ToLower(spf), "fail") || strings.Contains(strings.ToLower(dmarc), "fail")
}

// AnchorHrefs returns the href of every anchor element in document order
func AnchorHrefs(markup string) []string {
	if markup == "" {
		return nil
	}

	var hrefs []string
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					hrefs = append(hrefs, string(val))
					break
				}
				if !more {
					break
				}
			}
		}
	}
}

// LinkDomains returns the distinct lower-cased authority of every href that
// starts with http, in first-seen order.
func LinkDomains(hrefs []string) []string {
	seen := make(map[string]struct{})
	var domains []string
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if !strings.HasPrefix(strings.ToLower(href), "http") {
			continue
		}
		domain := strings.ToLower(authority(href))
		if domain == "" {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	return domains
}

// authority returns the host part of href. Hrefs the URL parser rejects,
// such as paths with broken percent-escapes, are split by hand.
func authority(href string) string {
	if u, err := url.Parse(href); err == nil {
		return u.Host
	}
	_, rest, ok := strings.Cut(href, "://")
	if !ok {
		return ""
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest = rest[i+1:]
	}
	return rest
}

// PlainText renders the HTML body to whitespace-collapsed text, falling back
// to the text part when there is no markup.
func PlainText(body core.Body) string {
	if strings.TrimSpace(body.HTML) == "" {
		return collapse(body.Text)
	}
	text, err := html2text.FromString(body.HTML, html2text.Options{TextOnly: true})
	if err != nil {
		return collapse(body.Text)
	}
	return collapse(text)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
