package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/threadscrape/internal/model"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	t.Run("counts crawl events", func(t *testing.T) {
		t.Parallel()

		c := NewCollector()
		c.BoundsResolved(model.PageRange{First: 2, Last: 4})
		c.PageStarted(2, "https://forum.test/t?page=2")
		c.RecordEmitted(2)
		c.RecordEmitted(2)
		c.DuplicateSkipped("c3")
		c.NodeFailed("c4", errors.New("bad votes"))
		c.PageDone(2, 2)

		checks := []struct {
			name string
			got  float64
			want float64
		}{
			{"records", testutil.ToFloat64(c.records), 2},
			{"pages", testutil.ToFloat64(c.pages), 1},
			{"duplicates", testutil.ToFloat64(c.duplicates), 1},
			{"failures", testutil.ToFloat64(c.failures), 1},
			{"current page", testutil.ToFloat64(c.currentPage), 2},
			{"last page", testutil.ToFloat64(c.lastPage), 4},
		}
		for _, ch := range checks {
			if ch.got != ch.want {
				t.Errorf("%s: expected %v, got %v", ch.name, ch.want, ch.got)
			}
		}
	})

	t.Run("collectors are registered", func(t *testing.T) {
		t.Parallel()

		c := NewCollector()
		n, err := testutil.GatherAndCount(c.Registry())
		if err != nil {
			t.Fatalf("failed to gather: %v", err)
		}
		if n != 6 {
			t.Errorf("expected 6 metrics, got %d", n)
		}
	})

	t.Run("writes a textfile", func(t *testing.T) {
		t.Parallel()

		c := NewCollector()
		c.RecordEmitted(1)

		path := filepath.Join(t.TempDir(), "threadscrape.prom")
		if err := c.WriteTextfile(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read metrics file: %v", err)
		}
		if !strings.Contains(string(data), "threadscrape_records_emitted_total 1") {
			t.Errorf("expected records counter in output, got:\n%s", data)
		}
	})
}
