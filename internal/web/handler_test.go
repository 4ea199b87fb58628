package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"emaildraft/internal/draft"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	result draft.Draft
	calls  int
	last   draft.Request
}

func (s *stubGenerator) Generate(ctx context.Context, req draft.Request) draft.Draft {
	s.calls++
	s.last = req
	return s.result
}

func newTestHandler(result draft.Draft) (*Handler, *stubGenerator) {
	gen := &stubGenerator{result: result}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(gen, logger), gen
}

func postForm(h http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func parsePage(t *testing.T, rr *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	return doc
}

func exampleForm() url.Values {
	return url.Values{
		"sender_name":   {"John Doe"},
		"receiver_name": {"Jane Smith"},
		"key_points":    {"- Introduce project\n- Request meeting"},
	}
}

// downloadedText декодирует data URL ссылки скачивания.
func downloadedText(t *testing.T, href string) string {
	t.Helper()
	const prefix = "data:text/plain;charset=utf-8,"
	require.True(t, strings.HasPrefix(href, prefix), "unexpected href %q", href)
	text, err := url.PathUnescape(strings.TrimPrefix(href, prefix))
	require.NoError(t, err)
	return text
}

func TestIndexRendersForm(t *testing.T) {
	h, _ := newTestHandler(draft.Draft{})

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parsePage(t, rr)
	assert.Equal(t, "✉️ Email Drafting Assistant", doc.Find(".main-title").Text())
	assert.Equal(t, 1, doc.Find(`input[name="sender_name"]`).Length())
	assert.Equal(t, 1, doc.Find(`input[name="receiver_name"]`).Length())
	assert.Equal(t, 1, doc.Find(`textarea[name="key_points"]`).Length())
	assert.Equal(t, "Generate Email", doc.Find("button").Text())
	assert.Equal(t, 0, doc.Find(".generated-email").Length())
	assert.Equal(t, 0, doc.Find(".form-error").Length())
}

func TestGenerateShowsDraftAndDownload(t *testing.T) {
	text := "Dear Jane,\n\n**Introduce project** & <b>more</b> 100% #1\n\nBest,\nJohn"
	h, gen := newTestHandler(draft.Draft{Text: text})

	rr := postForm(h.Generate, exampleForm())
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, gen.calls)
	assert.Equal(t, "- Introduce project\n- Request meeting", gen.last.KeyPoints)
	assert.Equal(t, "John Doe", gen.last.Sender)
	assert.Equal(t, "Jane Smith", gen.last.Receiver)

	doc := parsePage(t, rr)
	shown := doc.Find(".generated-email").Text()
	assert.Equal(t, text, shown)

	link := doc.Find("a#download_email")
	require.Equal(t, 1, link.Length())
	name, _ := link.Attr("download")
	assert.Equal(t, "email_draft.txt", name)
	href, _ := link.Attr("href")
	assert.Equal(t, shown, downloadedText(t, href))
}

func TestGenerateMissingKeyPointsSkipsModel(t *testing.T) {
	h, gen := newTestHandler(draft.Draft{Text: "never"})

	form := exampleForm()
	form.Set("key_points", "")
	rr := postForm(h.Generate, form)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 0, gen.calls)

	doc := parsePage(t, rr)
	assert.Equal(t, draft.ValidationMessage, strings.TrimSpace(doc.Find(".form-error").Text()))
	assert.Equal(t, 0, doc.Find(".generated-email").Length())
	value, _ := doc.Find(`input[name="sender_name"]`).Attr("value")
	assert.Equal(t, "John Doe", value)
}

func TestGenerateAcceptsWhitespaceOnlyField(t *testing.T) {
	h, gen := newTestHandler(draft.Draft{Text: "Dear Jane,"})

	form := exampleForm()
	form.Set("sender_name", " ")
	rr := postForm(h.Generate, form)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, gen.calls)
	assert.Equal(t, " ", gen.last.Sender)

	doc := parsePage(t, rr)
	assert.Equal(t, 0, doc.Find(".form-error").Length())
	assert.Equal(t, "Dear Jane,", doc.Find(".generated-email").Text())
}

func TestRerenderKeepsLeadingNewlineInKeyPoints(t *testing.T) {
	h, gen := newTestHandler(draft.Draft{})

	form := exampleForm()
	form.Set("sender_name", "")
	form.Set("key_points", "\n- Introduce project")
	rr := postForm(h.Generate, form)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 0, gen.calls)

	doc := parsePage(t, rr)
	assert.Equal(t, "\n- Introduce project", doc.Find(`textarea[name="key_points"]`).Text())
}

func TestGenerateFailureIsDisplayed(t *testing.T) {
	failed := draft.Draft{Text: draft.ErrorPrefix + "gemini status 403: permission denied", Failed: true}
	h, _ := newTestHandler(failed)

	rr := postForm(h.Generate, exampleForm())
	require.Equal(t, http.StatusOK, rr.Code)

	doc := parsePage(t, rr)
	shown := doc.Find(".generated-email").Text()
	assert.True(t, strings.HasPrefix(shown, "⚠️"))
	assert.Contains(t, shown, "permission denied")
}

func TestCreateDraftJSON(t *testing.T) {
	h, gen := newTestHandler(draft.Draft{Text: "Dear Jane,"})

	body, _ := json.Marshal(map[string]string{
		"sender_name":   "John Doe",
		"receiver_name": "Jane Smith",
		"key_points":    "- Request meeting",
	})
	rr := httptest.NewRecorder()
	h.CreateDraft(rr, httptest.NewRequest(http.MethodPost, "/api/v1/drafts", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp draftResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Dear Jane,", resp.Email)
	assert.Equal(t, "email_draft.txt", resp.Filename)
	assert.Equal(t, "- Request meeting", gen.last.KeyPoints)
}

func TestCreateDraftErrors(t *testing.T) {
	h, gen := newTestHandler(draft.Draft{Text: draft.ErrorPrefix + "boom", Failed: true})

	rr := httptest.NewRecorder()
	h.CreateDraft(rr, httptest.NewRequest(http.MethodPost, "/api/v1/drafts", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.CreateDraft(rr, httptest.NewRequest(http.MethodPost, "/api/v1/drafts", strings.NewReader(`{"sender_name":"a","receiver_name":"b"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "validation_failed")
	assert.Equal(t, 0, gen.calls)

	rr = httptest.NewRecorder()
	h.CreateDraft(rr, httptest.NewRequest(http.MethodPost, "/api/v1/drafts", strings.NewReader(`{"sender_name":"a","receiver_name":"b","key_points":"c"}`)))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "generation_failed")
	assert.Contains(t, rr.Body.String(), "boom")
}
