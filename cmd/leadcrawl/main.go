package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/leadcrawl"
	"github.com/fwojciec/leadcrawl/crawl"
	"github.com/fwojciec/leadcrawl/gemini"
	"github.com/fwojciec/leadcrawl/goquery"
	"github.com/fwojciec/leadcrawl/htmltomarkdown"
	leadhttp "github.com/fwojciec/leadcrawl/http"
	"github.com/fwojciec/leadcrawl/merge"
	"github.com/fwojciec/leadcrawl/rod"
	leadslog "github.com/fwojciec/leadcrawl/slog"
	"github.com/fwojciec/leadcrawl/sqlite"
	"github.com/fwojciec/leadcrawl/trafilatura"
	"github.com/fwojciec/leadcrawl/validate"
	"github.com/fwojciec/leadcrawl/yaml"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Directory holding campaign config YAML files.
	CampaignsDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	LeadService leadcrawl.LeadService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:       defaultDBPath(),
		CampaignsDir: defaultCampaignsDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("leadcrawl"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'leadcrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, nil))

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set LEADCRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	store := sqlite.NewLeadService(m.DB)
	m.LeadService = store
	deps.DB = m.DB
	deps.Leads = store
	deps.Sink = leadslog.NewLoggingLeadSink(store, logger)
	deps.Sitemaps = leadslog.NewLoggingSitemapService(leadhttp.NewSitemapService(nil), logger)

	if cmd == "crawl" || cmd == "campaigns" {
		registry, err := yaml.NewRegistry(os.DirFS(m.CampaignsDir))
		if err != nil {
			fmt.Fprintf(stderr, "Hint: Set LEADCRAWL_CAMPAIGNS to the directory holding campaign YAML files\n")
			return fmt.Errorf("failed to load campaigns from %q: %w", m.CampaignsDir, err)
		}
		deps.Campaigns = registry
	}

	if cmd == "crawl" {
		var fetcher leadcrawl.Fetcher
		if cli.Crawl.Render {
			f, err := rod.NewFetcher()
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			fetcher = rod.NewLoggingFetcher(f, logger)
		} else {
			fetcher = leadhttp.NewFetcher()
		}
		defer fetcher.Close()

		extractor := goquery.NewExtractor(trafilatura.NewExtractor())

		deps.Crawler = &crawl.Orchestrator{
			Fetcher:     fetcher,
			Links:       goquery.NewLinks(),
			Profiles:    extractor,
			Limiter:     crawl.NewDomainLimiter(cli.Crawl.RPS, 0),
			Concurrency: cli.Crawl.Concurrency,
			Logger:      logger,
		}

		deps.Engine = merge.NewEngine()
		deps.Engine.Validator = validate.NewValidator()
		deps.Engine.Logger = logger

		// The AI fallback is optional; without an API key low-confidence
		// leads are flagged instead of recovered.
		if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
			client, err := genai.NewClient(ctx, &genai.ClientConfig{
				APIKey:  apiKey,
				Backend: genai.BackendGeminiAPI,
			})
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
				return fmt.Errorf("failed to connect to Gemini API: %w", err)
			}
			fallback := gemini.NewExtractor(client, htmltomarkdown.NewConverter())
			deps.Engine.Fallback = leadslog.NewLoggingFallbackExtractor(fallback, logger)
		}
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("LEADCRAWL_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "leadcrawl.db"
	}
	dir := filepath.Join(home, ".leadcrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "leadcrawl.db")
}

func defaultCampaignsDir() string {
	if path := os.Getenv("LEADCRAWL_CAMPAIGNS"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "campaigns"
	}
	return filepath.Join(home, ".leadcrawl", "campaigns")
}
