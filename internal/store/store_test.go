package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Achi00/jobs-server/internal/domain"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.now = func() time.Time { return testNow }
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func rec(id, title, company string, date time.Time) domain.JobRecord {
	return domain.JobRecord{JobID: id, JobTitle: title, Company: company, Date: date, Skills: domain.SkillSet{"Go"}}
}

func TestUpsertAndFind(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, r := range []domain.JobRecord{
		rec("b", "Backend", "Acme", testNow),
		rec("a", "Frontend", "Beta", testNow),
	} {
		if err := db.Upsert(ctx, r.JobID, r); err != nil {
			t.Fatalf("Upsert(%s): %v", r.JobID, err)
		}
	}

	updated := rec("b", "Backend Lead", "Acme", testNow)
	if err := db.Upsert(ctx, "b", updated); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := db.FindByID(ctx, "b")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !reflect.DeepEqual(got, updated) {
		t.Errorf("FindByID = %+v, want %+v", got, updated)
	}

	all, err := db.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 || all[0].JobID != "b" || all[1].JobID != "a" {
		t.Errorf("FindAll order = %v, want [b a]", all)
	}

	if _, err := db.FindByID(ctx, "zzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByID(missing) err = %v, want ErrNotFound", err)
	}
}

func TestUpsertIdenticalKeepsRow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	r := rec("x", "SRE", "Acme", testNow)
	if err := db.Upsert(ctx, "x", r); err != nil {
		t.Fatal(err)
	}

	db.now = func() time.Time { return testNow.Add(time.Hour) }
	if err := db.Upsert(ctx, "x", r); err != nil {
		t.Fatal(err)
	}

	var updatedAt string
	if err := db.Pool.QueryRow(`SELECT updated_at FROM jobs WHERE job_id = 'x'`).Scan(&updatedAt); err != nil {
		t.Fatal(err)
	}
	if updatedAt != DateKey(testNow) {
		t.Errorf("updated_at = %s, want %s", updatedAt, DateKey(testNow))
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	for _, id := range []string{"1", "2", "3"} {
		if err := db.Upsert(ctx, id, rec(id, "T", "C", testNow)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := db.DeleteAll(ctx)
	if err != nil || n != 3 {
		t.Errorf("DeleteAll = %d, %v, want 3", n, err)
	}
	all, _ := db.FindAll(ctx)
	if len(all) != 0 {
		t.Errorf("FindAll after DeleteAll = %d records", len(all))
	}
}

func TestListJobs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	jobs := []domain.JobRecord{
		rec("old", "Zeta", "Acme", testNow.Add(-30*24*time.Hour)),
		rec("week", "Alpha", "Cobalt", testNow.Add(-3*24*time.Hour)),
		rec("new", "Mid", "Beta", testNow.Add(-time.Hour)),
	}
	for _, j := range jobs {
		if err := db.Upsert(ctx, j.JobID, j); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		opts ListJobsOpts
		want []string
	}{
		{ListJobsOpts{}, []string{"new", "week", "old"}},
		{ListJobsOpts{Window: "24h"}, []string{"new"}},
		{ListJobsOpts{Window: "7d", Sort: "title"}, []string{"week", "new"}},
		{ListJobsOpts{Sort: "company"}, []string{"old", "new", "week"}},
		{ListJobsOpts{Sort: "drop table", Limit: 1}, []string{"new"}},
	}
	for _, tt := range tests {
		got, err := db.ListJobs(ctx, tt.opts)
		if err != nil {
			t.Fatalf("ListJobs(%+v): %v", tt.opts, err)
		}
		var ids []string
		for _, l := range got {
			ids = append(ids, l.JobID)
		}
		if !reflect.DeepEqual(ids, tt.want) {
			t.Errorf("ListJobs(%+v) = %v, want %v", tt.opts, ids, tt.want)
		}
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	fourMonthsAgo := testNow.AddDate(0, -4, 0)
	db.now = func() time.Time { return fourMonthsAgo }
	_ = db.Upsert(ctx, "stale", rec("stale", "T", "C", fourMonthsAgo))
	db.now = func() time.Time { return testNow }
	_ = db.Upsert(ctx, "reposted", rec("reposted", "T", "C", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)))
	_ = db.Upsert(ctx, "new", rec("new", "T", "C", testNow))

	n, err := db.Prune(ctx, testNow.AddDate(0, -3, 0))
	if err != nil || n != 1 {
		t.Errorf("Prune = %d, %v, want 1", n, err)
	}
	if _, err := db.FindByID(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale job survived prune: %v", err)
	}
	for _, id := range []string{"new", "reposted"} {
		if _, err := db.FindByID(ctx, id); err != nil {
			t.Errorf("%s job pruned: %v", id, err)
		}
	}
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.FindProfile(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindProfile(missing) err = %v, want ErrNotFound", err)
	}

	p := domain.UserProfile{
		ID:         "u1",
		Email:      "u1@example.com",
		CreatedAt:  testNow,
		Skills:     []string{"Go", "SQL"},
		Experience: []domain.Experience{{Title: "Backend Engineer", Company: "Acme"}},
	}
	if err := db.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	got, err := db.FindProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("FindProfile: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("FindProfile = %+v, want %+v", got, p)
	}
}

func TestListJobsOptsNormalize(t *testing.T) {
	o := ListJobsOpts{Sort: "score; --", Window: "1y", Limit: 99999}.Normalize()
	if o.Sort != "date" || o.Window != "all" || o.Limit != maxListLimit {
		t.Errorf("Normalize = %+v", o)
	}
}
