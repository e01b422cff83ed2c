package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/phishguard/internal/adapters/store"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/di"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const usage = `Usage: phishguard [-config file] <command> [flags]

Commands:
  scan        scan connected mailboxes, once or every scan.interval
  connect     connect the mailbox of an owner
  disconnect  disconnect an owner and purge its data
  stats       show the threat statistics of an owner for a day
  dashboard   show message counts and recent scans of an owner
  messages    list the scanned messages of an owner
  message     show one message with its URL and AI findings
`

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	cmd := &command{name: flag.Arg(0), args: flag.Args()[1:]}

	// Run the application
	if err := container.Invoke(cmd.run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	name string
	args []string
}

// run is the main application function that gets all dependencies injected
func (c *command) run(
	cfg *config.Config,
	logger *zap.Logger,
	scanner ports.Scanner,
	accounts ports.AccountManager,
	db *store.Store,
	caches *factory.CacheFactory,
	scorer core.ExternalScorer,
) error {
	defer logger.Sync()
	defer func() {
		// Close any resources that need closing
		if closer, ok := scorer.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close external scorer", zap.Error(err))
			}
		}
		caches.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	owner := fs.String("owner", "", "Owner id of the mailbox account")

	switch c.name {
	case "scan":
		maxResults := fs.Int("max", 0, "Maximum messages per scan (0 uses scan.max_results)")
		if err := fs.Parse(c.args); err != nil {
			return err
		}
		owners := cfg.GetScan().Owners
		if *owner != "" {
			owners = []string{*owner}
		}
		if len(owners) == 0 {
			return errors.New("no owner given and scan.owners is empty")
		}
		return runScans(ctx, cfg, logger, scanner, owners, *maxResults)

	case "connect":
		if err := parseWithOwner(fs, c.args, owner); err != nil {
			return err
		}
		account, err := accounts.Connect(ctx, *owner)
		if err != nil {
			return err
		}
		return printJSON(account)

	case "disconnect":
		if err := parseWithOwner(fs, c.args, owner); err != nil {
			return err
		}
		if err := accounts.Disconnect(ctx, *owner); err != nil {
			return err
		}
		return printJSON(map[string]any{"success": true, "message": "Mailbox disconnected"})

	case "stats":
		date := fs.String("date", "", "Statistics date as YYYY-MM-DD (default today, UTC)")
		if err := parseWithOwner(fs, c.args, owner); err != nil {
			return err
		}
		stats, err := accounts.Statistics(ctx, *owner, *date)
		if err != nil {
			return err
		}
		return printJSON(stats)

	case "dashboard":
		if err := parseWithOwner(fs, c.args, owner); err != nil {
			return err
		}
		dashboard, err := accounts.Dashboard(ctx, *owner)
		if err != nil {
			return err
		}
		return printJSON(dashboard)

	case "messages":
		filter := fs.String("filter", "all", "Risk filter: all, phishing, ai_phishing, safe")
		limit := fs.Int("limit", 50, "Maximum messages to list (0 lists all)")
		if err := parseWithOwner(fs, c.args, owner); err != nil {
			return err
		}
		messages, err := accounts.ListMessages(ctx, *owner, *filter, *limit)
		if err != nil {
			return err
		}
		return printJSON(messages)

	case "message":
		id := fs.Int64("id", 0, "Message id")
		if err := parseWithOwner(fs, c.args, owner); err != nil {
			return err
		}
		detail, err := accounts.MessageDetail(ctx, *owner, *id)
		if err != nil {
			return err
		}
		return printJSON(detail)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command: %s", c.name)
	}
}

// runScans scans every owner once, then again every scan.interval until a
// shutdown signal arrives. The metrics listener only runs in loop mode.
func runScans(ctx context.Context, cfg *config.Config, logger *zap.Logger, scanner ports.Scanner, owners []string, maxResults int) error {
	interval := cfg.GetScan().Interval
	if interval <= 0 {
		return scanOwners(ctx, logger, scanner, owners, maxResults)
	}

	if metricsCfg := cfg.GetMetrics(); metricsCfg.Enabled {
		srv := startMetricsServer(metricsCfg.ListenAddress, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	logger.Info("Starting periodic scans", zap.Duration("interval", interval), zap.Strings("owners", owners))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := scanOwners(ctx, logger, scanner, owners, maxResults); err != nil {
			logger.Error("Scan pass failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logger.Info("Shutting down...")
			return nil
		case <-ticker.C:
		}
	}
}

// scanOwners runs one scan per owner and prints each outcome; it returns
// the last failure
func scanOwners(ctx context.Context, logger *zap.Logger, scanner ports.Scanner, owners []string, maxResults int) error {
	var lastErr error
	for _, owner := range owners {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		summary, err := scanner.StartScan(ctx, owner, maxResults)
		if err != nil {
			logger.Error("Scan failed", zap.String("owner_id", owner), zap.Error(err))
			lastErr = err
			var scanErr *core.ScanError
			if errors.As(err, &scanErr) {
				if perr := printJSON(scanErr); perr != nil {
					return perr
				}
			}
			continue
		}
		if err := printJSON(summary); err != nil {
			return err
		}
	}
	return lastErr
}

func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("Starting metrics listener", zap.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", zap.Error(err))
		}
	}()
	return srv
}

func parseWithOwner(fs *flag.FlagSet, args []string, owner *string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return errors.New("-owner is required")
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
