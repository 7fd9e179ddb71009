package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/crmsync/internal/app"
	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

const runTimeout = 30 * time.Minute

// parseSince разбирает явную нижнюю границу выборки.
// Пустая строка означает "вывести из леджера".
func parseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -since %q: %w", raw, err)
	}
	return since, nil
}

func main() {
	var sinceRaw string
	flag.StringVar(&sinceRaw, "since", "", "lower created_at bound, RFC3339 (default: derived from the ledger)")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	since, err := parseSince(sinceRaw)
	if err != nil {
		fail("%v", err)
	}

	cfg := app.ConfigFromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	deps, err := app.NewDependencies(ctx, cfg, log.WithField("component", "sync-cli"))
	if err != nil {
		fail("init dependencies: %v", err)
	}
	defer deps.Close()

	var result domain.SyncResult
	if since.IsZero() {
		result, err = deps.Orchestrator.SyncIncremental(ctx, domain.SyncTriggerCron)
	} else {
		result, err = deps.Orchestrator.Sync(ctx, domain.SyncTriggerManual, since)
	}
	if err != nil {
		fail("sync failed: %v", err)
	}

	fmt.Printf("sync ok: processed=%d added_valid=%d added_ignored=%d customers=%d\n",
		result.Processed, result.AddedValid, result.AddedIgnored, result.CustomersRebuilt)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
