package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testServer(t *testing.T, fs *fakeStore) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewHTTPServer(testService(t, fs), "*").Handler())
	t.Cleanup(server.Close)
	return server
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer(t, newFakeStore())

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReadyEndpointReportsDatabase(t *testing.T) {
	fs := newFakeStore()
	server := testServer(t, fs)

	resp, err := http.Get(server.URL + "/api/ready")
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	fs.pingErr = errors.New("connection refused")
	resp, err = http.Get(server.URL + "/api/ready")
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when database is down, got %d", resp.StatusCode)
	}
}

func TestRootLandingPage(t *testing.T) {
	server := testServer(t, newFakeStore())

	body, resp := get(t, server.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html response, got %q", ct)
	}
	if !strings.Contains(body, "Welcome") {
		t.Errorf("landing page must show the welcome panel")
	}
	if strings.Contains(body, "main-container") {
		t.Errorf("landing page must not render the entry form")
	}
}

func TestRootEditState(t *testing.T) {
	server := testServer(t, newFakeStore())

	body, resp := get(t, server.URL+"/?community=Acme&year=2024&period=Q1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "ACTIVE") || !strings.Contains(body, "/review?community=Acme") {
		t.Errorf("edit state must show the active badge and review link")
	}
	if !strings.Contains(body, "Population (male)") {
		t.Errorf("edit state must render the first section")
	}
}

func TestRootReadOnlyState(t *testing.T) {
	server := testServer(t, newFakeStore())

	body, resp := get(t, server.URL+"/?community=Acme&year=2023&period=Q1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "READ-ONLY") {
		t.Errorf("non-active year must show the read-only badge")
	}
	if strings.Contains(body, "REVIEW &amp; SUBMIT") {
		t.Errorf("read-only state must not offer review")
	}
}

func TestSwitchReturnsFragmentOnly(t *testing.T) {
	server := testServer(t, newFakeStore())

	body, resp := get(t, server.URL+"/switch?community=Acme&year=2024&period=Q1&section_id=notes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "<html") {
		t.Errorf("section switch must return a fragment, not a full page")
	}
	if !strings.Contains(body, "Narrative") {
		t.Errorf("fragment must render the requested section")
	}
}

func TestSwitchUnknownCommunity(t *testing.T) {
	server := testServer(t, newFakeStore())

	_, resp := get(t, server.URL+"/switch?community=Atlantis&year=2024&period=Q1&section_id=notes")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSaveEndpoint(t *testing.T) {
	fs := newFakeStore()
	server := testServer(t, fs)

	form := url.Values{
		"community":    {"Acme"},
		"year":         {"2024"},
		"period":       {"Q1"},
		"section_id":   {"population"},
		"indicator_id": {"pop_male"},
		"value":        {"120"},
	}
	resp, err := http.PostForm(server.URL+"/save", form)
	if err != nil {
		t.Fatalf("save request: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "Saved") || !strings.Contains(body, "saved-flash") {
		t.Errorf("saved row must carry the save feedback markup")
	}

	got, _ := fs.GetValue(context.Background(), "Acme", "2024", "Q1", "pop_male")
	if got != "120" {
		t.Errorf("expected stored value 120, got %q", got)
	}
}

func TestSaveUnknownIndicatorEndpoint(t *testing.T) {
	server := testServer(t, newFakeStore())

	form := url.Values{
		"community":    {"Acme"},
		"year":         {"2024"},
		"period":       {"Q1"},
		"section_id":   {"population"},
		"indicator_id": {"bogus"},
		"value":        {"1"},
	}
	resp, err := http.PostForm(server.URL+"/save", form)
	if err != nil {
		t.Fatalf("save request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestReviewEndpoint(t *testing.T) {
	fs := newFakeStore()
	server := testServer(t, fs)

	if err := fs.UpsertEntry(context.Background(), "Acme", "2024", "Q1", "pop_male", "120", "count"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	body, resp := get(t, server.URL+"/review?community=Acme&year=2024&period=Q1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Population (male)") || !strings.Contains(body, "120") {
		t.Errorf("review must list the stored value")
	}
	if !strings.Contains(body, "/download_report?community=Acme") {
		t.Errorf("review must link the download")
	}
}

func TestReviewEmptyState(t *testing.T) {
	server := testServer(t, newFakeStore())

	body, resp := get(t, server.URL+"/review?community=Acme&year=2024&period=Q1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "No data entered for this period.") {
		t.Errorf("empty review must show the empty state")
	}
}

func TestDownloadReportEndpoint(t *testing.T) {
	fs := newFakeStore()
	server := testServer(t, fs)

	if err := fs.UpsertEntry(context.Background(), "Acme", "2024", "Q1", "pop_male", "120", "count"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := http.Get(server.URL + "/download_report?community=Acme&year=2024&period=Q1")
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, `filename="Tally_Report_Acme_2024_Q1.csv"`) {
		t.Errorf("unexpected disposition %q", disposition)
	}
	if !strings.HasPrefix(body, "community,year,period,indicator_id,indicator_name,value,unit") {
		t.Errorf("csv must start with the fixed header, got %q", body)
	}
	if !strings.Contains(body, "Acme,2024,Q1,pop_male,Population (male),120,count") {
		t.Errorf("csv missing stored row: %q", body)
	}
}

func TestIndicatorSearchEndpointWithoutBackend(t *testing.T) {
	server := testServer(t, newFakeStore())

	body, resp := get(t, server.URL+"/api/indicators/search?q=population")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"results":[]`) {
		t.Errorf("search without a backend must return an empty result set, got %q", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	server := testServer(t, newFakeStore())

	_, resp := get(t, server.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func get(t *testing.T, target string) (string, *http.Response) {
	t.Helper()
	resp, err := http.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	return readBody(t, resp), resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}
