package evidence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawPhish = "From: PayPal Support <support@paypal-secure.net>\r\n" +
	"To: victim@example.com\r\n" +
	"Subject: Urgent: verify your account\r\n" +
	"Message-ID: <abc123@paypal-secure.net>\r\n" +
	"Authentication-Results: mx.example.com; spf=fail smtp.mailfrom=paypal-secure.net; dmarc=fail header.from=paypal-secure.net\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Verify your account now.\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Verify <a href=\"http://login-check.xyz/verify\">here</a></p>\r\n" +
	"--b1--\r\n"

func TestFromMIME(t *testing.T) {
	record, err := FromMIME(strings.NewReader(rawPhish))
	require.NoError(t, err)

	assert.Equal(t, "abc123@paypal-secure.net", record.MessageID)
	assert.Equal(t, "Urgent: verify your account", record.Headers.Subject)
	assert.Equal(t, "PayPal Support <support@paypal-secure.net>", record.Headers.From)
	require.NotNil(t, record.Headers.Auth)
	assert.Equal(t, "fail", record.Headers.Auth.SPF)
	assert.Equal(t, "fail", record.Headers.Auth.DMARC)
	assert.Contains(t, record.Body.HTML, "login-check.xyz")
	assert.Contains(t, record.Body.Text, "Verify your account now.")

	ev := NewExtractor().Extract(record)
	assert.Equal(t, "paypal-secure.net", ev.SenderDomain)
	assert.Equal(t, []string{"login-check.xyz"}, ev.LinkDomains)
	assert.True(t, ev.AuthFailed)
}

func TestParseAuthenticationResults(t *testing.T) {
	assert.Nil(t, ParseAuthenticationResults(nil))
	assert.Nil(t, ParseAuthenticationResults([]string{"mx.example.com; none"}))

	auth := ParseAuthenticationResults([]string{"mx; spf=PASS smtp.mailfrom=a.com", "mx; dmarc=none"})
	require.NotNil(t, auth)
	assert.Equal(t, "pass", auth.SPF)
	assert.Equal(t, "none", auth.DMARC)
}
