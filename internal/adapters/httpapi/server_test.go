package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikey/spam-evidence-engine/internal/evidence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	err    error
	ids    []string
	bodies [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, messageID string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, messageID)
	p.bodies = append(p.bodies, body)
	return nil
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRootAndHealth(t *testing.T) {
	srv := NewServer(&recordingPublisher{}, evidence.NewDecoder(nil), zap.NewNop())

	rec := do(t, srv, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Anti-Spam Ingestion API is running!")

	rec = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyze_Queued(t *testing.T) {
	pub := &recordingPublisher{}
	srv := NewServer(pub, evidence.NewDecoder(nil), zap.NewNop())

	payload := `{"headers":{"subject":"Urgent","from":"Support <support@paypal-secure.net>","authentication_results":{"spf":"fail"}},"body":{"html":"<a href=\"http://x.top/a\">x</a>"}}`
	rec := do(t, srv, http.MethodPost, "/v1/analyze", payload)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "received_and_queued", resp.Status)
	assert.Len(t, resp.MessageID, 36)

	require.Len(t, pub.ids, 1)
	assert.Equal(t, resp.MessageID, pub.ids[0])

	decoded, err := evidence.NewDecoder(nil).Decode(pub.bodies[0])
	require.NoError(t, err)
	assert.Equal(t, resp.MessageID, decoded.MessageID)
	assert.Equal(t, "Urgent", decoded.Headers.Subject)
	require.NotNil(t, decoded.Headers.Auth)
	assert.Equal(t, "fail", decoded.Headers.Auth.SPF)
}

func TestAnalyze_KeepsMessageID(t *testing.T) {
	pub := &recordingPublisher{}
	srv := NewServer(pub, evidence.NewDecoder(nil), zap.NewNop())

	rec := do(t, srv, http.MethodPost, "/v1/analyze", `{"message_id":"abc","headers":{"from":"a@b.com"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"abc"}, pub.ids)
}

func TestAnalyze_BadRequest(t *testing.T) {
	pub := &recordingPublisher{}
	srv := NewServer(pub, evidence.NewDecoder(nil), zap.NewNop())

	for _, body := range []string{`not json`, `{"body":{"text":"no headers"}}`} {
		rec := do(t, srv, http.MethodPost, "/v1/analyze", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, pub.ids)
}

func TestAnalyze_QueueUnavailable(t *testing.T) {
	srv := NewServer(&recordingPublisher{err: errors.New("channel closed")}, evidence.NewDecoder(nil), zap.NewNop())

	rec := do(t, srv, http.MethodPost, "/v1/analyze", `{"headers":{"from":"a@b.com"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
