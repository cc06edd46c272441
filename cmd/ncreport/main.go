// Command ncreport summarises the import tracking store as JSON.
//
// Usage:
//
//	ncreport -db data/ncimport.db                  # print to stdout
//	ncreport -db data/ncimport.db -out report.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncwikibot/ncimport/report"
	"github.com/ncwikibot/ncimport/store"
)

func main() {
	dbPath := flag.String("db", "data/ncimport.db", "path to the tracking database")
	outPath := flag.String("out", "", "write the report to this file instead of stdout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dbPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "ncreport: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, outPath string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open tracking store: %w", err)
	}
	defer st.Close()

	summary, err := report.Generate(ctx, st)
	if err != nil {
		return err
	}

	if outPath != "" {
		return report.Write(summary, outPath)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
