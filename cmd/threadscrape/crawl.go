package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadscrape/internal/browser"
	"github.com/nao1215/threadscrape/internal/config"
	"github.com/nao1215/threadscrape/internal/crawler"
	"github.com/nao1215/threadscrape/internal/database"
	"github.com/nao1215/threadscrape/internal/log"
	"github.com/nao1215/threadscrape/internal/metrics"
	"github.com/nao1215/threadscrape/internal/model"
	"github.com/nao1215/threadscrape/internal/progress"
	"github.com/nao1215/threadscrape/internal/report"
	"github.com/nao1215/threadscrape/internal/tor"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a paginated comment listing",
		Long: `Crawl opens the listing in a browser, reads the page range from its
pagination control, and visits every page in order.

Each top-level comment is written as one JSON line as soon as its page has
been parsed:

  {"user":"...","content":"...","votes":3,"date":"...","responses":[...]}

votes is "" when the comment has no vote button and date is null when it has
no timestamp. A comment seen on an earlier page is skipped along with its
replies. Between two pages the crawler sleeps for a random duration below
--waiting.

Examples:
  # Crawl to standard output
  threadscrape crawl -u "https://forum.example.com/thread?id=7"

  # Write to a file and pause at most 10s between pages
  threadscrape crawl -u "https://forum.example.com/thread?id=7" -o comments.jsonl -w 10s

  # Route the browser through an embedded Tor daemon
  threadscrape crawl -u "http://example.onion/board" --tor

  # Keep the run in the local archive
  threadscrape crawl -u "https://forum.example.com/thread?id=7" --archive`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("pagination-url", "u", "",
		"Listing URL; page N is requested by setting the page parameter to N")
	cmd.Flags().StringP("output", "o", "",
		"Write JSON lines to this file instead of standard output (truncated if it exists)")
	waiting := secondsValue(config.DefaultWaiting)
	cmd.Flags().VarP(&waiting, "waiting", "w",
		"Maximum random pause between pages, in seconds or as a duration like 1m30s (0 disables the pause)")
	cmd.Flags().String("page-param", config.DefaultPageParam,
		"Query parameter carrying the page number")
	cmd.Flags().Duration("render-timeout", config.DefaultRenderTimeout,
		"Maximum wait for the comment container to appear on a page")
	cmd.Flags().Duration("nav-timeout", config.DefaultNavigationTimeout,
		"Maximum wait for a page to finish loading")

	cmd.Flags().String("driver", config.DefaultDriver,
		"Browser backend: chromedp or playwright")
	cmd.Flags().String("chrome-path", "",
		"Browser executable (default: auto-detect)")
	cmd.Flags().Bool("headful", false,
		"Show the browser window")
	cmd.Flags().String("user-agent", "",
		"Override the browser user agent")

	cmd.Flags().String("proxy", "",
		"Proxy URL for the browser, e.g. socks5://127.0.0.1:9050")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route the browser through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().StringP("config", "c", "",
		"Site configuration file (default: .threadscrape in current or home directory)")

	cmd.Flags().Bool("archive", false,
		"Store the run and its records in the local archive")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")
	cmd.Flags().String("metrics-file", "",
		"Write crawl counters in Prometheus text format to this file")
	cmd.Flags().Bool("no-progress", false,
		"Do not show the progress spinner")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.ErrOrStderr())
}

// secondsValue is a duration flag that also accepts a bare number of
// seconds, such as "30" or "2.5".
type secondsValue time.Duration

func (s *secondsValue) String() string {
	return time.Duration(*s).String()
}

func (s *secondsValue) Set(v string) error {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("invalid seconds: %s", v)
		}
		*s = secondsValue(time.Duration(f * float64(time.Second)))
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("expected seconds or a duration: %w", err)
	}
	*s = secondsValue(d)
	return nil
}

func (s *secondsValue) Type() string {
	return "seconds"
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig assembles the configuration from defaults, .env, the
// environment, flags, and the site configuration file. Flags win over the
// environment, and both win over the site file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := config.NewConfig()
	cfg.ApplyEnv()
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	var err error

	if cfg.PaginationURL, err = flags.GetString("pagination-url"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if v, ok := flags.Lookup("waiting").Value.(*secondsValue); ok {
		cfg.Waiting = time.Duration(*v)
	}
	if cfg.RenderTimeout, err = flags.GetDuration("render-timeout"); err != nil {
		return nil, err
	}
	if cfg.NavigationTimeout, err = flags.GetDuration("nav-timeout"); err != nil {
		return nil, err
	}
	if cfg.Driver, err = flags.GetString("driver"); err != nil {
		return nil, err
	}
	if cfg.Headful, err = flags.GetBool("headful"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.Archive, err = flags.GetBool("archive"); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}
	noProgress, err := flags.GetBool("no-progress")
	if err != nil {
		return nil, err
	}
	cfg.Progress = !noProgress

	// These may already be set from the environment.
	for name, dst := range map[string]*string{
		"chrome-path": &cfg.ChromePath,
		"user-agent":  &cfg.UserAgent,
		"proxy":       &cfg.ProxyURL,
		"db-dir":      &cfg.DBDir,
	} {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if err := loadSites(cfg); err != nil {
		return nil, err
	}

	site := cfg.Site()
	cfg.PageParam = config.DefaultPageParam
	if site.PageParam != "" {
		cfg.PageParam = site.PageParam
	}
	if flags.Changed("page-param") {
		if cfg.PageParam, err = flags.GetString("page-param"); err != nil {
			return nil, err
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = site.UserAgent
	}

	return cfg, nil
}

// loadSites reads the site configuration file. A file named explicitly
// must exist; otherwise a missing file means built-in defaults.
func loadSites(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	sites, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.Sites = sites
	return nil
}

// runCrawl executes one crawl described by cfg. Progress and the final
// summary go to status; records go to cfg.OutputFile or standard output.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, status io.Writer) error {
	site := cfg.Site()

	output, closeOutput, err := openOutput(cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeOutput()
	jsonl := report.NewJSONLEmitter(output)

	proxyURL := cfg.ProxyURL
	switch {
	case cfg.UseTor:
		embedded, err := startEmbeddedTor(ctx, cfg, logger, status)
		if err != nil {
			return err
		}
		defer func() {
			logger.Info("stopping embedded Tor daemon")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
		if proxyURL, err = embedded.ProxyURL(); err != nil {
			return err
		}
	case proxyURL != "":
		if err := checkSocksProxy(ctx, proxyURL, cfg.PaginationURL); err != nil {
			return err
		}
	}

	session, err := browser.New(ctx, cfg.Driver,
		browser.WithExecPath(cfg.ChromePath),
		browser.WithProxy(proxyURL),
		browser.WithUserAgent(cfg.UserAgent),
		browser.WithCookie(site.Cookie),
		browser.WithHeaders(site.Headers),
		browser.WithHeadful(cfg.Headful),
		browser.WithNavigationTimeout(cfg.NavigationTimeout),
		browser.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	emitters := []report.Emitter{jsonl}

	var archive *database.Archive
	run := model.CrawlRun{URL: cfg.PaginationURL, StartedAt: time.Now().UTC()}
	if cfg.Archive {
		archive, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()

		if run, err = archive.StartRun(ctx, cfg.PaginationURL); err != nil {
			return err
		}
		emitters = append(emitters, archive.Recorder(run.ID))
		logger.Info("archiving run", "run", run.ID, "db", archive.Path())
	}

	collector := metrics.NewCollector()
	observers := []crawler.Observer{collector}
	var spin *progress.Spinner
	if cfg.Progress {
		spin = progress.NewSpinner(status)
		observers = append(observers, spin)
	}

	c := crawler.New(session, report.NewMultiEmitter(emitters...),
		crawler.WithSelectors(site.Selectors),
		crawler.WithMaxWait(cfg.Waiting),
		crawler.WithRenderTimeout(cfg.RenderTimeout),
		crawler.WithPageParam(cfg.PageParam),
		crawler.WithObserver(crawler.Observers(observers...)),
		crawler.WithLogger(logger),
	)

	summary, crawlErr := c.Run(ctx, cfg.PaginationURL)
	if spin != nil {
		spin.Stop()
	}

	run = finishRun(run, summary, crawlErr)
	if archive != nil {
		// The crawl context may already be canceled.
		if err := archive.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Error("failed to close archived run", "run", run.ID, "error", err)
		}
	}

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if _, err := report.NewSimpleWriter(status, report.WithVerbose(cfg.Verbose)).WriteRun(run); err != nil {
		logger.Warn("failed to write summary", "error", err)
	}

	if crawlErr != nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	return nil
}

// finishRun fills run with the outcome of a crawl.
func finishRun(run model.CrawlRun, summary crawler.Summary, err error) model.CrawlRun {
	run.FinishedAt = time.Now().UTC()
	run.Range = summary.Range
	run.Pages = summary.Pages
	run.Records = summary.Records
	run.Duplicates = summary.Duplicates
	run.Failures = summary.Failures
	run.Status = model.RunStatusCompleted
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	}
	return run
}

// openOutput opens path for the JSON lines, or returns standard output
// when path is empty.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// startEmbeddedTor starts a Tor daemon and checks that it can reach the
// listing's host.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, status io.Writer) (*tor.EmbeddedTor, error) {
	fmt.Fprintln(status, "Starting embedded Tor daemon...")
	fmt.Fprintf(status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.TorStartupTimeout))
	if err := embedded.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", embedded.SocksAddr(),
		"controlAddr", embedded.ControlAddr(),
	)

	client, err := embedded.NewClient(0)
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	target, err := targetAddress(cfg.PaginationURL)
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // best effort cleanup
		return nil, err
	}
	if s := client.CheckConnection(ctx, target); s != tor.ProxyStatusOK {
		_ = embedded.Stop() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("embedded Tor proxy check failed: %w", s.Error())
	}

	fmt.Fprintf(status, "Embedded Tor daemon started, SOCKS proxy: %s\n\n", embedded.SocksAddr())
	return embedded, nil
}

// checkSocksProxy verifies a socks5:// proxy before the browser starts.
// Other proxy schemes are passed to the browser unchecked.
func checkSocksProxy(ctx context.Context, proxyURL, pageURL string) error {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidProxy, err)
	}
	if u.Scheme != "socks5" {
		return nil
	}

	client, err := tor.NewClient(u.Host, 0)
	if err != nil {
		return err
	}
	target, err := targetAddress(pageURL)
	if err != nil {
		return err
	}
	if s := client.CheckConnection(ctx, target); s != tor.ProxyStatusOK {
		return fmt.Errorf("proxy check failed for %s: %w", u.Host, s.Error())
	}
	return nil
}

// targetAddress returns the host:port the listing is served from.
func targetAddress(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return "", config.ErrInvalidURL
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return "", errors.New("cannot infer port for scheme " + u.Scheme)
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
