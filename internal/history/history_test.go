package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/h5cruncher/internal/export"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleJob(id, dataset string, started time.Time) Job {
	return Job{
		ID:        id,
		StartedAt: started,
		Source:    "data/trades.h5",
		Dataset:   dataset,
		Columns:   []string{"id", "price"},
		Output:    "out.csv",
		Rows:      100,
		Bytes:     2048,
		Checksum:  "00deadbeef00cafe",
		Duration:  1500 * time.Millisecond,
		Status:    StatusOK,
	}
}

// --- schema tests ---

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)

	var count int
	err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'jobs'`,
	).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count == 0 {
		t.Error("jobs table does not exist")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", path)
	}
}

// --- record and list tests ---

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	for i, dataset := range []string{"/a", "/b", "/c"} {
		job := sampleJob("", dataset, t0.Add(time.Duration(i)*time.Minute))
		if err := s.Record(ctx, job); err != nil {
			t.Fatalf("Record %s: %v", dataset, err)
		}
	}

	jobs, err := s.List(ctx, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 {
		t.Fatalf("got %d jobs, want 3", len(jobs))
	}
	for i, want := range []string{"/c", "/b", "/a"} {
		if jobs[i].Dataset != want {
			t.Errorf("jobs[%d].Dataset = %s, want %s (newest first)", i, jobs[i].Dataset, want)
		}
	}

	got := jobs[2]
	if got.ID == "" {
		t.Error("Record must assign an ID when the job has none")
	}
	if !got.StartedAt.Equal(t0) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, t0)
	}
	if len(got.Columns) != 2 || got.Columns[0] != "id" || got.Columns[1] != "price" {
		t.Errorf("Columns = %v, want [id price]", got.Columns)
	}
	if got.Rows != 100 || got.Bytes != 2048 {
		t.Errorf("Rows/Bytes = %d/%d, want 100/2048", got.Rows, got.Bytes)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Duration)
	}
	if got.Checksum != "00deadbeef00cafe" {
		t.Errorf("Checksum = %s", got.Checksum)
	}
}

func TestRecordUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	job := sampleJob("job-1", "/a", time.Now().UTC())
	if err := s.Record(ctx, job); err != nil {
		t.Fatal(err)
	}
	job.Rows = 999
	job.Status = StatusFailed
	job.Error = "disk full"
	if err := s.Record(ctx, job); err != nil {
		t.Fatal(err)
	}

	jobs, err := s.List(ctx, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1 after upsert", len(jobs))
	}
	if jobs[0].Rows != 999 || jobs[0].Status != StatusFailed || jobs[0].Error != "disk full" {
		t.Errorf("upsert did not replace fields: %+v", jobs[0])
	}
}

func TestListFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	trades := sampleJob("", "/store/trades", t0)
	trades.Source = "data/day1.h5"

	quotes := sampleJob("", "/store/quotes", t0.Add(time.Minute))
	quotes.Source = "data/day2.h5"
	quotes.Status = StatusFailed
	quotes.Error = "cannot load: file not found"

	for _, job := range []Job{trades, quotes} {
		if err := s.Record(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"dataset substring", QueryOptions{Dataset: "trade"}, []string{"/store/trades"}},
		{"source substring", QueryOptions{Source: "day2"}, []string{"/store/quotes"}},
		{"status", QueryOptions{Status: StatusFailed}, []string{"/store/quotes"}},
		{"limit", QueryOptions{Limit: 1}, []string{"/store/quotes"}},
		{"no match", QueryOptions{Dataset: "absent"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := s.List(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(jobs) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(jobs), len(tt.want))
			}
			for i, want := range tt.want {
				if jobs[i].Dataset != want {
					t.Errorf("jobs[%d].Dataset = %s, want %s", i, jobs[i].Dataset, want)
				}
			}
		})
	}
}

// --- job construction tests ---

func TestNewJob(t *testing.T) {
	res := &export.Result{
		ID:       "11111111-2222-3333-4444-555555555555",
		Source:   "data/trades.h5",
		Dataset:  "/trades",
		Columns:  []string{"id", "price"},
		RowSpec:  "1-100",
		Output:   "trades.csv",
		Rows:     100,
		Bytes:    4096,
		Checksum: "badc0ffee0ddf00d",
		Duration: 2 * time.Second,
	}

	job := NewJob("", "", res, nil)
	if job.ID != res.ID || job.Dataset != "/trades" || job.Rows != 100 {
		t.Errorf("NewJob did not copy the result: %+v", job)
	}
	if job.Status != StatusOK || job.Error != "" {
		t.Errorf("Status = %s, Error = %q, want ok with no error", job.Status, job.Error)
	}

	job = NewJob("", "", res, errors.New("rename failed"))
	if job.Status != StatusFailed || job.Error != "rename failed" {
		t.Errorf("failed run not recorded: %+v", job)
	}

	job = NewJob("data/x.h5", "/x", nil, errors.New("cannot load: not an H5 file"))
	if job.ID == "" {
		t.Error("nil result must still get an ID")
	}
	if job.Source != "data/x.h5" || job.Dataset != "/x" {
		t.Errorf("nil result must keep the request: %+v", job)
	}
	if job.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", job.Status)
	}
}

// --- prune tests ---

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		job := sampleJob("", "/d", t0.Add(time.Duration(i)*time.Minute))
		if err := s.Record(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.Prune(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	jobs, err := s.List(ctx, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2 after prune", len(jobs))
	}
	if !jobs[0].StartedAt.Equal(t0.Add(4 * time.Minute)) {
		t.Errorf("prune must keep the newest jobs, got %v", jobs[0].StartedAt)
	}

	if _, err := s.Prune(ctx, 0); err != nil {
		t.Fatal(err)
	}
	jobs, err = s.List(ctx, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("got %d jobs, want 0 after prune to zero", len(jobs))
	}
}

// --- format tests ---

func TestFormatTable(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	ok := sampleJob("aaaabbbb-cccc-dddd-eeee-ffff00001111", "/store/trades", t0)
	failed := sampleJob("22223333-4444-5555-6666-777788889999", "/store/quotes", t0)
	failed.Status = StatusFailed
	failed.Error = "cannot load: file not found"
	failed.Output = ""

	var buf strings.Builder
	FormatTable(&buf, []Job{ok, failed})
	out := buf.String()

	for _, want := range []string{
		"ID", "STARTED", "DATASET", "ROWS", "STATUS", "OUTPUT",
		"aaaabbbb", "/store/trades", "out.csv", "ok",
		"22223333", "failed", "cannot load: file not found",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "aaaabbbb-cccc") {
		t.Error("IDs must be shortened")
	}
}
