package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

type recordedRequest struct {
	Method    string
	Path      string
	Query     url.Values
	Body      string
	Auth      string
	RequestID string
}

type cannedResponse struct {
	status      int
	contentType string
	body        string
	headers     map[string]string
}

type testServer struct {
	server    *httptest.Server
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]cannedResponse
}

func newTestServer(t *testing.T, responses map[string]cannedResponse) *testServer {
	t.Helper()
	ts := &testServer{responses: responses}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)

		ts.mu.Lock()
		ts.requests = append(ts.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.Query(),
			Body:      body.String(),
			Auth:      r.Header.Get("Authorization"),
			RequestID: r.Header.Get("X-Request-ID"),
		})
		ts.mu.Unlock()

		key := r.Method + " " + r.URL.Path
		resp, ok := ts.responses[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		if resp.contentType == "" {
			resp.contentType = "application/json"
		}
		w.Header().Set("Content-Type", resp.contentType)
		for k, v := range resp.headers {
			w.Header().Set(k, v)
		}
		if resp.status == 0 {
			resp.status = http.StatusOK
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) last(t *testing.T) recordedRequest {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.requests) == 0 {
		t.Fatalf("expected a request")
	}
	return ts.requests[len(ts.requests)-1]
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, ts *testServer, token string) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL:    ts.server.URL + "/",
		Tokens:     staticToken(token),
		HTTPClient: ts.server.Client(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

var ctx = context.Background()

func TestNewValidatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "ftp://host", "http://", "::bad"} {
		if _, err := New(Options{BaseURL: base}); err == nil {
			t.Fatalf("expected error for %q", base)
		}
	}
	c, err := New(Options{BaseURL: " http://192.168.1.189:3002/ "})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.BaseURL() != "http://192.168.1.189:3002" {
		t.Fatalf("unexpected base url %q", c.BaseURL())
	}
}

func TestLoginReturnsToken(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"POST /auth/login": {body: `{"access_token":"tok-1"}`},
	})
	c := newTestClient(t, ts, "")

	token, err := c.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("expected tok-1, got %q", token)
	}
	req := ts.last(t)
	if req.Body != `{"username":"admin","password":"secret"}` {
		t.Fatalf("unexpected body %s", req.Body)
	}
	if req.Auth != "" {
		t.Fatalf("expected no bearer before login, got %q", req.Auth)
	}
	if req.RequestID == "" {
		t.Fatalf("expected request id header")
	}
}

func TestLoginUnauthorizedIsRejectionNotExpiry(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"POST /auth/login": {status: http.StatusUnauthorized, body: `{"message":"Unauthorized"}`},
	})
	c := newTestClient(t, ts, "")

	_, err := c.Login(ctx, "admin", "wrong")
	if !errors.Is(err, ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Fatalf("login failure must not look like an expired session")
	}
}

func TestLoginWithoutTokenIsRejected(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"POST /auth/login": {body: `{}`},
	})
	c := newTestClient(t, ts, "")
	if _, err := c.Login(ctx, "admin", "secret"); !errors.Is(err, ErrLoginRejected) {
		t.Fatalf("expected ErrLoginRejected, got %v", err)
	}
}

func TestSurveyDataSendsFiltersAndBearer(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"GET /survey/pivot-data": {body: `[{"ResultID":"R1","Brand":"X","MFG Date":"2025100"}]`},
	})
	c := newTestClient(t, ts, "tok-1")

	records, err := c.SurveyData(ctx, url.Values{"Brand": {"X"}})
	if err != nil {
		t.Fatalf("SurveyData failed: %v", err)
	}
	if len(records) != 1 || records[0].Brand != "X" || records[0].MFGDate != "2025100" {
		t.Fatalf("unexpected records %+v", records)
	}
	req := ts.last(t)
	if req.Auth != "Bearer tok-1" {
		t.Fatalf("expected bearer token, got %q", req.Auth)
	}
	if req.Query.Get("Brand") != "X" || len(req.Query) != 1 {
		t.Fatalf("unexpected query %v", req.Query)
	}
}

func TestSurveyDataWithoutFiltersSendsNoQuery(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"GET /survey/pivot-data": {body: `[]`},
	})
	c := newTestClient(t, ts, "tok-1")
	if _, err := c.SurveyData(ctx, url.Values{}); err != nil {
		t.Fatalf("SurveyData failed: %v", err)
	}
	if q := ts.last(t).Query; len(q) != 0 {
		t.Fatalf("expected empty query, got %v", q)
	}
}

func TestUnauthorizedIsSessionExpired(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"GET /survey/pivot-data":          {status: http.StatusUnauthorized, body: `{"message":"jwt expired"}`},
		"POST /survey/download-zip-image": {status: http.StatusUnauthorized},
	})
	c := newTestClient(t, ts, "stale")

	_, err := c.SurveyData(ctx, nil)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected wrapped StatusError, got %v", err)
	}
	if _, err := c.DownloadImagesZip(ctx, "R1", []string{"a", "b"}); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired for downloads, got %v", err)
	}
}

func TestServerErrorIsStatusError(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"GET /survey/pivot-data": {status: http.StatusInternalServerError, body: "boom"},
	})
	c := newTestClient(t, ts, "tok")
	_, err := c.SurveyData(ctx, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != 500 || statusErr.Body != "boom" {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Fatalf("500 must not expire the session")
	}
}

func TestTransportFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	c := newTestClient(t, ts, "tok")
	ts.server.Close()
	if _, err := c.SurveyData(ctx, nil); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestExportExcel(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"GET /survey/export-excel": {
			contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			body:        "PK\x03\x04xlsx",
			headers:     map[string]string{"Content-Disposition": `attachment; filename="report.xlsx"`},
		},
	})
	c := newTestClient(t, ts, "tok")

	dl, err := c.ExportExcel(ctx, "2025-03-01", "2025-03-31", url.Values{"Brand": {"X"}, "FromDate": {"ignored"}})
	if err != nil {
		t.Fatalf("ExportExcel failed: %v", err)
	}
	if string(dl.Body) != "PK\x03\x04xlsx" || dl.Filename != "report.xlsx" {
		t.Fatalf("unexpected download %+v", dl)
	}
	q := ts.last(t).Query
	if q.Get("FromDate") != "2025-03-01" || q.Get("ToDate") != "2025-03-31" || q.Get("Brand") != "X" {
		t.Fatalf("unexpected query %v", q)
	}
	if len(q["FromDate"]) != 1 {
		t.Fatalf("expected a single FromDate, got %v", q["FromDate"])
	}
}

func TestExportExcelRequiresRange(t *testing.T) {
	ts := newTestServer(t, nil)
	c := newTestClient(t, ts, "tok")
	if _, err := c.ExportExcel(ctx, "", "2025-03-31", nil); err == nil {
		t.Fatalf("expected range error")
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.requests) != 0 {
		t.Fatalf("expected no request without a range")
	}
}

func TestDownloadImagesPicksEndpoint(t *testing.T) {
	ts := newTestServer(t, map[string]cannedResponse{
		"POST /survey/download-single-image": {contentType: "image/jpeg", body: "jpeg"},
		"POST /survey/download-zip-image":    {contentType: "application/zip", body: "zip"},
	})
	c := newTestClient(t, ts, "tok")

	dl, err := c.DownloadImages(ctx, "R1", []string{"a.jpg"})
	if err != nil || string(dl.Body) != "jpeg" {
		t.Fatalf("single download failed: %v %q", err, dl.Body)
	}
	if body := ts.last(t).Body; body != `{"projectId":"R1","file":"a.jpg"}` {
		t.Fatalf("unexpected single body %s", body)
	}

	dl, err = c.DownloadImages(ctx, "R1", []string{"a.jpg", "b.jpg"})
	if err != nil || string(dl.Body) != "zip" {
		t.Fatalf("zip download failed: %v %q", err, dl.Body)
	}
	if body := ts.last(t).Body; body != `{"projectId":"R1","files":["a.jpg","b.jpg"]}` {
		t.Fatalf("unexpected zip body %s", body)
	}

	if _, err := c.DownloadImages(ctx, "R1", nil); err == nil {
		t.Fatalf("expected error without images")
	}
}
