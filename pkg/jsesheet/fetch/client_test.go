package fetch_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/komsit37/jsesheet/pkg/jsesheet/fetch"
)

const baseURL = "https://jse.example/daily-quote-pdf/"

var session = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func response(code int, ctype, body string) *http.Response {
	h := http.Header{}
	if ctype != "" {
		h.Set("Content-Type", ctype)
	}
	return &http.Response{StatusCode: code, Header: h, Body: io.NopCloser(strings.NewReader(body))}
}

func reply(code int, ctype, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return response(code, ctype, body), nil
	}
}

func newClient(httpClient fetch.HTTPClient, options ...fetch.Option) *fetch.Client {
	options = append([]fetch.Option{
		fetch.WithBaseURL(baseURL),
		fetch.WithHTTPClient(httpClient),
		fetch.WithBackOff(func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
		}),
	}, options...)
	return fetch.NewClient(options...)
}

func TestSheetURL(t *testing.T) {
	t.Parallel()

	client := fetch.NewClient(fetch.WithBaseURL(baseURL))
	got, err := client.SheetURL(session, 31)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"?date=2024-03-04&market=31", got)
}

func TestSheet_DirectPDF(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock http client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: the request targets the dated sheet with browser headers.
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "2024-03-04", req.URL.Query().Get("date"))
			require.Equal(t, "33", req.URL.Query().Get("market"))
			require.Equal(t, fetch.DefaultUserAgent, req.Header.Get("User-Agent"))
			require.Contains(t, req.Header.Get("Accept"), "application/pdf")
			return response(http.StatusOK, "application/octet-stream", "%PDF-1.4 sheet"), nil
		}).
		Times(1)

	// Act
	body, origin, err := newClient(httpClient).Sheet(t.Context(), session, 33)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 sheet", string(body))
	assert.Equal(t, baseURL+"?date=2024-03-04&market=33", origin)
}

func TestSheet_PDFContentType(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "application/pdf", "binary")).Times(1)

	body, _, err := newClient(httpClient).Sheet(t.Context(), session, 31)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(body))
}

func TestSheet_HTMLWrapper(t *testing.T) {
	t.Parallel()

	// Arrange: the page embeds the sheet with a relative link.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	page := `<html><body>
<a href="/about">About</a>
<iframe src="/wp-content/uploads/2024/03/Daily-Quote-Sheet.PDF?x=1"></iframe>
<a href="/other.pdf">Other</a>
</body></html>`
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "text/html; charset=utf-8", page)),
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "https://jse.example/wp-content/uploads/2024/03/Daily-Quote-Sheet.PDF?x=1", req.URL.String())
			return response(http.StatusOK, "", "%PDF-1.7 linked"), nil
		}),
	)

	// Act
	body, origin, err := newClient(httpClient).Sheet(t.Context(), session, 31)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 linked", string(body))
	assert.Equal(t, "https://jse.example/wp-content/uploads/2024/03/Daily-Quote-Sheet.PDF?x=1", origin)
}

func TestSheet_HTMLWithoutLink(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "text/html", "<p>No sheet today</p>")).Times(1)

	_, _, err := newClient(httpClient).Sheet(t.Context(), session, 31)
	require.ErrorIs(t, err, fetch.ErrNoPDFLink)
}

func TestSheet_LinkedDocumentNotPDF(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "text/html", `<a href="sheet.pdf">sheet</a>`)),
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "text/html", "<html>login</html>")),
	)

	_, _, err := newClient(httpClient).Sheet(t.Context(), session, 31)
	require.ErrorIs(t, err, fetch.ErrNotPDF)
}

func TestSheet_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusNotFound, "text/html", "gone")).Times(1)

	_, _, err := newClient(httpClient).Sheet(t.Context(), session, 31)

	var serr *fetch.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)
}

func TestSheet_ServerErrorIsRetried(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusServiceUnavailable, "", "busy")),
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusTooManyRequests, "", "slow down")),
		httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "application/pdf", "%PDF-1.4")),
	)

	body, _, err := newClient(httpClient).Sheet(t.Context(), session, 31)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestSheet_TransportErrorGivesUp(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	boom := errors.New("connection reset")
	httpClient.EXPECT().Do(gomock.Any()).Return(nil, boom).Times(3)

	_, _, err := newClient(httpClient).Sheet(t.Context(), session, 31)
	require.ErrorIs(t, err, boom)
}

func TestSheet_BodyOverLimit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "application/pdf", "%PDF-1.4 0123")).Times(1)

	_, _, err := newClient(httpClient, fetch.WithMaxBody(8)).Sheet(t.Context(), session, 31)

	require.ErrorIs(t, err, fetch.ErrTooLarge)
	assert.Contains(t, err.Error(), "exceeds 8 bytes")
}

func TestSheet_BodyAtLimit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(reply(http.StatusOK, "application/pdf", "%PDF-1.4"))

	body, _, err := newClient(httpClient, fetch.WithMaxBody(8)).Sheet(t.Context(), session, 31)

	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestWithHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "bar", req.Header.Get("foo"))
			require.Equal(t, []string{"jsesheet-test"}, req.Header.Values("User-Agent"))
			return response(http.StatusOK, "application/pdf", "%PDF"), nil
		}).
		Times(1)

	client := newClient(httpClient, fetch.WithHeader(http.Header{
		"foo":        []string{"bar"},
		"User-Agent": []string{"jsesheet-test"},
	}))
	_, _, err := client.Sheet(t.Context(), session, 31)
	require.NoError(t, err)
}
