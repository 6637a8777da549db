package httpapi

import (
	"context"
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Achi00/jobs-server/internal/assemble"
	"github.com/Achi00/jobs-server/internal/config"
	"github.com/Achi00/jobs-server/internal/events"
	"github.com/Achi00/jobs-server/internal/extract"
	"github.com/Achi00/jobs-server/internal/rank"
	"github.com/Achi00/jobs-server/internal/scrape/types"
	"github.com/Achi00/jobs-server/internal/store"
)

type fakePoller struct {
	mu    sync.Mutex
	calls int
	ran   chan struct{}
}

func (p *fakePoller) PollOnce(context.Context) (types.ScrapeStatus, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	p.ran <- struct{}{}
	return types.ScrapeStatus{LastAdded: 1}, nil
}

func (p *fakePoller) Status() types.ScrapeStatus {
	return types.ScrapeStatus{LastRunAt: "2025-01-01T00:00:00Z"}
}

type memSecrets struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *memSecrets) Has(a string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[a] != ""
}

func (s *memSecrets) Set(a, v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[a] = v
	return nil
}

func (s *memSecrets) Delete(a string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, a)
	return nil
}

type testEnv struct {
	srv      *httptest.Server
	db       *store.DB
	poller   *fakePoller
	secrets  *memSecrets
	hub      *events.Hub
	cfgPath  string
	reloaded atomic.Int32
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var cfg config.Config
	cfg.ApplyDefaults()
	cfgPath := filepath.Join(dir, "config.yml")
	if err := config.SaveAtomic(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}
	var cfgVal atomic.Value
	cfgVal.Store(cfg)

	env := &testEnv{
		db:      db,
		poller:  &fakePoller{ran: make(chan struct{}, 1)},
		secrets: &memSecrets{m: map[string]string{}},
		hub:     events.NewHub(),
		cfgPath: cfgPath,
	}
	pipe := &assemble.Pipeline{
		Vocab:   extract.NewVocabulary(extract.DefaultSkillNames),
		Sink:    db,
		Workers: 2,
	}
	mux := NewMux(Deps{
		Store:       db,
		Ingest:      pipe,
		Ranker:      rank.Service{Corpus: db, Profiles: db, Opts: rank.DefaultOptions(), MaxPageSize: 100},
		Hub:         env.hub,
		Poller:      env.poller,
		Secrets:     env.secrets,
		CfgVal:      &cfgVal,
		UserCfgPath: cfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(cfgPath) },
		OnConfig:    func(config.Config) { env.reloaded.Add(1) },
		BaseCtx:      context.Background(),
		Started:      time.Now(),
		SSEHeartbeat: 20 * time.Millisecond,
	})
	env.srv = httptest.NewServer(Chain(mux, RequestID, AccessLog, Recover, MaxBytes(1<<20), Cors))
	t.Cleanup(env.hub.Close)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func errorCode(t *testing.T, b []byte) string {
	t.Helper()
	var e APIError
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("not an error envelope: %s", b)
	}
	if e.Error.RequestID == "" {
		t.Errorf("error envelope missing request_id: %s", b)
	}
	return e.Error.Code
}

const ingestBody = `[
 {"jobId":"101","title":"Senior Go Engineer","company":"Acme","date":"2025-01-10T00:00:00Z",
  "insights":["$150K/yr","Remote","Full-time"],"skills":"Go, PostgreSQL, Docker",
  "description":"Build Go services on PostgreSQL."},
 {"jobId":"102","title":"Frontend Developer","company":"Beta","date":"2025-01-11T00:00:00Z",
  "skills":["React","TypeScript"],"description":"React apps."},
 {"title":"no id"}
]`

func TestJobsLifecycle(t *testing.T) {
	e := newEnv(t)

	code, b := e.do(t, http.MethodPost, "/jobs/ingest", ingestBody)
	if code != http.StatusOK {
		t.Fatalf("ingest = %d %s", code, b)
	}
	var m assemble.Metrics
	_ = json.Unmarshal(b, &m)
	if m.Processed != 2 || m.Missed != 1 {
		t.Errorf("metrics = %+v", m)
	}

	code, b = e.do(t, http.MethodGet, "/jobs?sort=title", "")
	if code != http.StatusOK {
		t.Fatalf("list = %d %s", code, b)
	}
	var listed []map[string]any
	_ = json.Unmarshal(b, &listed)
	if len(listed) != 2 || listed[0]["jobId"] != "102" {
		t.Errorf("listed = %v", listed)
	}

	if code, b = e.do(t, http.MethodGet, "/jobs?limit=lots", ""); code != http.StatusBadRequest || errorCode(t, b) != "bad_request" {
		t.Errorf("bad limit = %d %s", code, b)
	}

	code, b = e.do(t, http.MethodGet, "/jobs/101", "")
	if code != http.StatusOK || !strings.Contains(string(b), `"Senior Go Engineer"`) {
		t.Errorf("get = %d %s", code, b)
	}
	if code, b = e.do(t, http.MethodGet, "/jobs/999", ""); code != http.StatusNotFound || errorCode(t, b) != "not_found" {
		t.Errorf("missing job = %d %s", code, b)
	}

	// bulk clear is the only deletion path
	if code, b = e.do(t, http.MethodDelete, "/jobs/101", ""); code != http.StatusMethodNotAllowed || errorCode(t, b) != "method_not_allowed" {
		t.Errorf("delete one = %d %s", code, b)
	}
	code, b = e.do(t, http.MethodDelete, "/jobs", "")
	if code != http.StatusOK || strings.TrimSpace(string(b)) != `{"deleted":2}` {
		t.Errorf("delete all = %d %s", code, b)
	}
}

func TestIngestedJobIsReadable(t *testing.T) {
	e := newEnv(t)
	body := `{"jobId":"old-1","title":"Platform Engineer","company":"Acme","date":"2020-01-02"}`
	if code, b := e.do(t, http.MethodPost, "/jobs/ingest", body); code != http.StatusOK {
		t.Fatalf("ingest = %d %s", code, b)
	}

	code, b := e.do(t, http.MethodGet, "/jobs/old-1", "")
	if code != http.StatusOK {
		t.Fatalf("get = %d %s", code, b)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["jobId"] != "old-1" || got["jobTitle"] != "Platform Engineer" {
		t.Errorf("record = %v", got)
	}
}

func TestIngestRejectsBadBodies(t *testing.T) {
	e := newEnv(t)
	for _, body := range []string{"{", "[]", "   "} {
		if code, _ := e.do(t, http.MethodPost, "/jobs/ingest", body); code != http.StatusBadRequest {
			t.Errorf("body %q: status %d", body, code)
		}
	}
}

func TestProfilesAndRanking(t *testing.T) {
	e := newEnv(t)
	if code, b := e.do(t, http.MethodPost, "/jobs/ingest", ingestBody); code != http.StatusOK {
		t.Fatalf("ingest = %d %s", code, b)
	}

	if code, b := e.do(t, http.MethodGet, "/users/u1/profile", ""); code != http.StatusNotFound || errorCode(t, b) != "not_found" {
		t.Errorf("missing profile = %d %s", code, b)
	}

	code, b := e.do(t, http.MethodPut, "/users/u1/profile",
		`{"id":"ignored","displayName":"Ana","skills":["Go"," ","PostgreSQL"],"experience":[{"title":"Go Engineer"}]}`)
	if code != http.StatusOK {
		t.Fatalf("put profile = %d %s", code, b)
	}
	var p map[string]any
	_ = json.Unmarshal(b, &p)
	if p["id"] != "u1" || len(p["skills"].([]any)) != 2 {
		t.Errorf("profile = %v", p)
	}

	code, b = e.do(t, http.MethodGet, "/users/u1/jobs?page=1&limit=1", "")
	if code != http.StatusOK {
		t.Fatalf("ranked = %d %s", code, b)
	}
	var page rank.Page
	if err := json.Unmarshal(b, &page); err != nil {
		t.Fatal(err)
	}
	if page.TotalJobs != 2 || page.TotalPages != 2 || len(page.Jobs) != 1 {
		t.Errorf("page = %+v", page)
	}
	if page.Jobs[0].JobID != "101" || page.Jobs[0].RelevanceScore <= 0 {
		t.Errorf("top job = %s score %v", page.Jobs[0].JobID, page.Jobs[0].RelevanceScore)
	}

	code, b = e.do(t, http.MethodGet, "/users/u1/jobs?mode=simple", "")
	if code != http.StatusOK {
		t.Fatalf("simple = %d %s", code, b)
	}
	_ = json.Unmarshal(b, &page)
	if page.ItemsPerPage != 20 {
		t.Errorf("default page size = %d", page.ItemsPerPage)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/users/u1/jobs?page=abc", http.StatusBadRequest},
		{"/users/u1/jobs?limit=1.5", http.StatusBadRequest},
		{"/users/u1/jobs?mode=fuzzy", http.StatusBadRequest},
		{"/users/nobody/jobs", http.StatusNotFound},
	}
	for _, tt := range tests {
		if code, b := e.do(t, http.MethodGet, tt.path, ""); code != tt.want {
			t.Errorf("%s = %d %s", tt.path, code, b)
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	e := newEnv(t)

	code, b := e.do(t, http.MethodGet, "/config", "")
	if code != http.StatusOK {
		t.Fatalf("get config = %d", code)
	}
	var cfg config.Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		t.Fatal(err)
	}

	cfg.Scoring.Mode = "sideways"
	bad, _ := json.Marshal(cfg)
	code, b = e.do(t, http.MethodPut, "/config", string(bad))
	if code != http.StatusBadRequest || !strings.Contains(string(b), "scoring.mode") {
		t.Errorf("invalid put = %d %s", code, b)
	}

	cfg.Scoring.Mode = "simple"
	good, _ := json.Marshal(cfg)
	if code, b = e.do(t, http.MethodPut, "/config", string(good)); code != http.StatusOK {
		t.Fatalf("put = %d %s", code, b)
	}
	saved, err := config.Load(e.cfgPath)
	if err != nil || saved.Scoring.Mode != "simple" {
		t.Errorf("saved mode = %q, %v", saved.Scoring.Mode, err)
	}
	if e.reloaded.Load() != 1 {
		t.Errorf("OnConfig calls = %d", e.reloaded.Load())
	}

	if code, _ = e.do(t, http.MethodPut, "/config", `{"Nope":1}`); code != http.StatusBadRequest {
		t.Errorf("unknown field = %d", code)
	}
}

func TestSecrets(t *testing.T) {
	e := newEnv(t)

	if code, _ := e.do(t, http.MethodPost, "/api/secrets/imap", `{"password":"pw"}`); code != http.StatusBadRequest {
		t.Errorf("imap without username = %d", code)
	}
	if code, _ := e.do(t, http.MethodPost, "/api/secrets/enrich", `{"value":"sk-1"}`); code != http.StatusNoContent {
		t.Errorf("set enrich = %d", code)
	}
	code, b := e.do(t, http.MethodGet, "/api/secrets/enrich", "")
	if code != http.StatusOK || !strings.Contains(string(b), `"present":true`) {
		t.Errorf("status = %d %s", code, b)
	}
	if code, _ := e.do(t, http.MethodDelete, "/api/secrets/enrich", ""); code != http.StatusNoContent {
		t.Errorf("delete = %d", code)
	}
	if e.secrets.Has("jobs-server:enrich") {
		t.Error("secret not deleted")
	}
	if code, _ := e.do(t, http.MethodGet, "/api/secrets/ftp", ""); code != http.StatusNotFound {
		t.Errorf("unknown kind = %d", code)
	}
}

func TestScrapeRun(t *testing.T) {
	e := newEnv(t)
	if code, _ := e.do(t, http.MethodPost, "/scrape/run", ""); code != http.StatusAccepted {
		t.Fatalf("run = %d", code)
	}
	select {
	case <-e.poller.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not start")
	}
	code, b := e.do(t, http.MethodGet, "/scrape/status", "")
	if code != http.StatusOK || !strings.Contains(string(b), "2025-01-01") {
		t.Errorf("status = %d %s", code, b)
	}
}

func TestLogosAndMisc(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.db.PutLogo(ctx, "abc123", store.Logo{ContentType: "image/png", Bytes: []byte("png")}); err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/logo/abc123", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || string(b) != "png" || res.Header.Get("Content-Type") != "image/png" {
		t.Errorf("logo = %d %q %q", res.StatusCode, b, res.Header.Get("Content-Type"))
	}
	req, _ = http.NewRequest(http.MethodGet, e.srv.URL+"/logo/abc123", nil)
	req.Header.Set("If-None-Match", res.Header.Get("ETag"))
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotModified {
		t.Errorf("conditional logo = %d", res.StatusCode)
	}
	if code, _ := e.do(t, http.MethodGet, "/logo/missing", ""); code != http.StatusNotFound {
		t.Errorf("missing logo = %d", code)
	}

	if code, _ := e.do(t, http.MethodGet, "/health", ""); code != http.StatusOK {
		t.Errorf("health = %d", code)
	}
	if code, b := e.do(t, http.MethodPost, "/health", ""); code != http.StatusMethodNotAllowed || errorCode(t, b) != "method_not_allowed" {
		t.Errorf("wrong method = %d %s", code, b)
	}
	if code, _ := e.do(t, http.MethodPost, "/db/checkpoint", ""); code != http.StatusNoContent {
		t.Errorf("checkpoint = %d", code)
	}
}

func TestEventsStreamThroughMiddleware(t *testing.T) {
	e := newEnv(t)
	first := events.New("", events.TypeJobUpserted, map[string]string{"jobId": "1"})
	missed := events.New("", events.TypeJobUpserted, map[string]string{"jobId": "2"})
	e.hub.Publish(first.Encode())
	e.hub.Publish(missed.Encode())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, e.srv.URL+"/events", nil)
	req.Header.Set("Last-Event-ID", first.ID)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK || !strings.HasPrefix(res.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("events = %d %q", res.StatusCode, res.Header.Get("Content-Type"))
	}

	live := events.New("", events.TypeScrapeFinished, nil)
	published := false
	sawMissed, sawLive, sawKeepalive := false, false, false

	sc := bufio.NewScanner(res.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "id: "+missed.ID:
			sawMissed = true
		case line == "id: "+live.ID:
			sawLive = true
		case line == ": keepalive":
			sawKeepalive = true
		}
		if sawMissed && !published {
			e.hub.Publish(live.Encode())
			published = true
		}
		if sawMissed && sawLive && sawKeepalive {
			return
		}
	}
	t.Fatalf("stream ended: missed=%v live=%v keepalive=%v err=%v", sawMissed, sawLive, sawKeepalive, sc.Err())
}

func TestCorsAndBodyLimit(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		origin string
		want   int
		allow  bool
	}{
		{"http://localhost:5173", http.StatusNoContent, true},
		{"http://127.0.0.1:3000", http.StatusNoContent, true},
		{"tauri://localhost", http.StatusNoContent, true},
		{"https://evil.example", http.StatusForbidden, false},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodOptions, e.srv.URL+"/jobs", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != tt.want {
			t.Errorf("%s preflight = %d, want %d", tt.origin, res.StatusCode, tt.want)
		}
		if got := res.Header.Get("Access-Control-Allow-Origin") == tt.origin; got != tt.allow {
			t.Errorf("%s allow-origin = %q", tt.origin, res.Header.Get("Access-Control-Allow-Origin"))
		}
	}

	big := `[{"jobId":"1","description":"` + strings.Repeat("x", 1<<20) + `"}]`
	code, b := e.do(t, http.MethodPost, "/jobs/ingest", big)
	if code != http.StatusRequestEntityTooLarge || errorCode(t, b) != "payload_too_large" {
		t.Errorf("oversized ingest = %d %s", code, b)
	}
}

func TestHealthReportsStore(t *testing.T) {
	e := newEnv(t)
	code, b := e.do(t, http.MethodGet, "/health", "")
	if code != http.StatusOK {
		t.Fatalf("health = %d %s", code, b)
	}
	var body map[string]any
	_ = json.Unmarshal(b, &body)
	if body["store"] != "ok" || body["scrape_running"] != false {
		t.Errorf("health body = %s", b)
	}

	_ = e.db.Close()
	if code, _ := e.do(t, http.MethodGet, "/health", ""); code != http.StatusServiceUnavailable {
		t.Errorf("health with closed store = %d", code)
	}
}
