package main

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/threadscrape/internal/config"
	"github.com/nao1215/threadscrape/internal/crawler"
	"github.com/nao1215/threadscrape/internal/model"
	"github.com/nao1215/threadscrape/internal/tor"
)

// writeSiteConfig writes a site configuration file and returns its path.
func writeSiteConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// parseCrawlFlags builds a config from crawl command line arguments.
func parseCrawlFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cmd := NewCrawlCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return buildConfig(cmd)
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{name: "pagination-url", shorthand: "u", def: ""},
		{name: "output", shorthand: "o", def: ""},
		{name: "waiting", shorthand: "w", def: "30s"},
		{name: "render-timeout", def: "10s"},
		{name: "nav-timeout", def: "1m0s"},
		{name: "page-param", def: "page"},
		{name: "driver", def: "chromedp"},
		{name: "tor", def: "false"},
		{name: "archive", def: "false"},
		{name: "config", shorthand: "c", def: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.def {
				t.Errorf("expected default %q, got %q", tt.def, flag.DefValue)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	empty := writeSiteConfig(t, "defaults: {}\n")

	t.Run("flags are copied", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseCrawlFlags(t,
			"-c", empty,
			"-u", "https://forum.test/thread?id=1",
			"-o", "out.jsonl",
			"-w", "5",
			"--render-timeout", "3s",
			"--nav-timeout", "20s",
			"--driver", "playwright",
			"--archive",
			"--no-progress",
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PaginationURL != "https://forum.test/thread?id=1" || cfg.OutputFile != "out.jsonl" {
			t.Errorf("unexpected url/output: %q %q", cfg.PaginationURL, cfg.OutputFile)
		}
		if cfg.Waiting != 5*time.Second || cfg.RenderTimeout != 3*time.Second || cfg.NavigationTimeout != 20*time.Second {
			t.Errorf("unexpected timing: %v %v %v", cfg.Waiting, cfg.RenderTimeout, cfg.NavigationTimeout)
		}
		if cfg.Driver != config.DriverPlaywright || !cfg.Archive || cfg.Progress {
			t.Errorf("unexpected switches: %+v", cfg)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected a valid config, got %v", err)
		}
	})

	t.Run("site page parameter applies unless the flag is set", func(t *testing.T) {
		t.Parallel()

		path := writeSiteConfig(t, `
sites:
  forum.test:
    page_param: p
    user_agent: site-agent
`)
		cfg, err := parseCrawlFlags(t, "-c", path, "-u", "https://forum.test/t")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PageParam != "p" {
			t.Errorf("expected site page param, got %q", cfg.PageParam)
		}
		if cfg.UserAgent != "site-agent" {
			t.Errorf("expected site user agent, got %q", cfg.UserAgent)
		}

		cfg, err = parseCrawlFlags(t, "-c", path, "-u", "https://forum.test/t", "--page-param", "pg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PageParam != "pg" {
			t.Errorf("expected flag page param, got %q", cfg.PageParam)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		t.Parallel()

		_, err := parseCrawlFlags(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("proxy and tor conflict", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseCrawlFlags(t, "-c", empty, "-u", "https://forum.test/t",
			"--proxy", "socks5://127.0.0.1:9050", "--tor")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cfg.Validate(); !errors.Is(err, config.ErrConflictingProxy) {
			t.Errorf("expected ErrConflictingProxy, got %v", err)
		}
	})
}

func TestSecondsValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
	}{
		{in: "30", want: 30 * time.Second},
		{in: "2.5", want: 2500 * time.Millisecond},
		{in: "0", want: 0},
		{in: "1m30s", want: 90 * time.Second},
		{in: "250ms", want: 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			var v secondsValue
			if err := v.Set(tt.in); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if time.Duration(v) != tt.want {
				t.Errorf("expected %v, got %v", tt.want, time.Duration(v))
			}
		})
	}

	for _, bad := range []string{"", "soon", "NaN", "Inf"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			t.Parallel()

			var v secondsValue
			if err := v.Set(bad); err == nil {
				t.Errorf("expected error for %q", bad)
			}
		})
	}

	t.Run("negative seconds fail validation", func(t *testing.T) {
		t.Parallel()

		cfg, err := parseCrawlFlags(t, "-c", writeSiteConfig(t, "{}\n"), "-u", "https://forum.test/t", "--waiting=-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidWaiting) {
			t.Errorf("expected ErrInvalidWaiting, got %v", err)
		}
	})
}

func TestTargetAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{url: "https://forum.test/t?id=1", want: "forum.test:443"},
		{url: "http://forum.test/t", want: "forum.test:80"},
		{url: "http://example.onion:8080/board", want: "example.onion:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			got, err := targetAddress(tt.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("targetAddress() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("relative URL", func(t *testing.T) {
		t.Parallel()
		if _, err := targetAddress("/thread"); !errors.Is(err, config.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})
}

func TestFinishRun(t *testing.T) {
	t.Parallel()

	summary := crawler.Summary{
		Range:      model.PageRange{First: 2, Last: 4},
		Pages:      2,
		Records:    7,
		Duplicates: 1,
		Failures:   3,
	}

	t.Run("completed", func(t *testing.T) {
		t.Parallel()

		run := finishRun(model.CrawlRun{ID: "r1", StartedAt: time.Now().UTC()}, summary, nil)
		if run.Status != model.RunStatusCompleted || run.Error != "" {
			t.Errorf("unexpected status %s %q", run.Status, run.Error)
		}
		if run.Records != 7 || run.Range != summary.Range || run.Failures != 3 {
			t.Errorf("summary not copied: %+v", run)
		}
		if run.FinishedAt.IsZero() || run.ID != "r1" {
			t.Errorf("unexpected run: %+v", run)
		}
	})

	t.Run("failed", func(t *testing.T) {
		t.Parallel()

		run := finishRun(model.CrawlRun{}, summary, errors.New("page 3: waiting for \".shoutbox\": timeout"))
		if run.Status != model.RunStatusFailed {
			t.Errorf("expected failed, got %s", run.Status)
		}
		if !strings.Contains(run.Error, "page 3") {
			t.Errorf("expected error message to be kept, got %q", run.Error)
		}
	})
}

func TestOpenOutput(t *testing.T) {
	t.Parallel()

	t.Run("empty path is standard output", func(t *testing.T) {
		t.Parallel()

		w, closeFn, err := openOutput("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeFn()
		if w != os.Stdout {
			t.Error("expected standard output")
		}
	})

	t.Run("existing file is truncated", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "out.jsonl")
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("old content\n"), 0600); err != nil {
			t.Fatal(err)
		}

		w, closeFn, err := openOutput(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := w.Write([]byte("{}\n")); err != nil {
			t.Fatal(err)
		}
		closeFn()

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "{}\n" {
			t.Errorf("expected truncated file, got %q", got)
		}
	})
}

func TestCheckSocksProxy(t *testing.T) {
	t.Parallel()

	t.Run("http proxy is not checked", func(t *testing.T) {
		t.Parallel()

		if err := checkSocksProxy(context.Background(), "http://127.0.0.1:1", "https://forum.test/t"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unreachable socks proxy fails", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		addr := ln.Addr().String()
		_ = ln.Close()

		err = checkSocksProxy(context.Background(), "socks5://"+addr, "https://forum.test/t")
		if !errors.Is(err, tor.ErrProxyCannotConnect) {
			t.Errorf("expected ErrProxyCannotConnect, got %v", err)
		}
	})
}
