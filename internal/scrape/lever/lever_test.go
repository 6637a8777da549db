package lever

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Achi00/jobs-server/internal/config"
)

const postingsJSON = `[
 {"id":"a1","text":"Backend Engineer","hostedUrl":"%[1]s/page/a1?lever-source=x","applyUrl":"%[1]s/page/a1/apply",
  "createdAt":1740830400000,"workplaceType":"remote",
  "categories":{"location":"Berlin","team":"Platform","commitment":"Full-time"},
  "description":"<p>Go and Postgres</p>","descriptionPlain":"Go and Postgres"},
 {"id":"b2","text":"Data Engineer","hostedUrl":"%[1]s/page/b2",
  "categories":{"location":"","commitment":"Contract"},
  "description":"<p>Spark</p>"},
 {"id":"","text":"No id","hostedUrl":"%[1]s/page/x"}
]`

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/acme", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") != "json" {
			http.Error(w, "mode", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, postingsJSON, srv.URL)
	})
	mux.HandleFunc("/page/b2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="posting-categories"><div class="location">Hybrid - London</div></div></body></html>`)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchMapsPostings(t *testing.T) {
	srv := newAPI(t)
	s := New([]config.Company{{Slug: "broken", Name: "Broken"}, {Slug: "acme", Name: "Acme"}}, nil)
	s.BaseURL = srv.URL
	s.Workers = 2

	b, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if b.Source != "lever" {
		t.Errorf("source = %q", b.Source)
	}
	if len(b.Fragments) != 2 {
		t.Fatalf("fragments = %d, want 2", len(b.Fragments))
	}

	byID := map[string]int{}
	for i, f := range b.Fragments {
		byID[f.JobID] = i
	}
	a, ok := byID["lever-a1"]
	if !ok {
		t.Fatalf("missing lever-a1 in %+v", b.Fragments)
	}
	f := b.Fragments[a]
	if f.Company != "Acme" || f.Title != "Backend Engineer" {
		t.Errorf("a1 = %+v", f)
	}
	if f.Link != srv.URL+"/page/a1" {
		t.Errorf("link = %q", f.Link)
	}
	if f.ApplyLink != srv.URL+"/page/a1/apply" {
		t.Errorf("apply = %q", f.ApplyLink)
	}
	if f.LocationType != "Remote" || f.JobType != "Full-time" {
		t.Errorf("types = %q %q", f.LocationType, f.JobType)
	}
	if f.Date != "2025-03-01T12:00:00Z" {
		t.Errorf("date = %q", f.Date)
	}
	if f.Description != "Go and Postgres" || f.JobInfo != "Platform" {
		t.Errorf("description/team = %q %q", f.Description, f.JobInfo)
	}

	d := b.Fragments[byID["lever-b2"]]
	if d.Location == "" {
		t.Errorf("b2 location not hydrated: %+v", d)
	}
	if d.LocationType != "Hybrid" || d.JobType != "Contract" {
		t.Errorf("b2 types = %q %q", d.LocationType, d.JobType)
	}
	if d.Description != "Spark" {
		t.Errorf("b2 description = %q", d.Description)
	}
}

func TestFetchCancelled(t *testing.T) {
	srv := newAPI(t)
	s := New([]config.Company{{Slug: "acme", Name: "Acme"}}, nil)
	s.BaseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Fetch(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
