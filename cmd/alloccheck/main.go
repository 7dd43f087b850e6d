// alloccheck validates clients/workers/tasks files headlessly and prints the
// summary the workbench would show. Exit code 1 means hard errors remain.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"alloclab/internal/entity"
	"alloclab/internal/export"
	"alloclab/internal/fix"
	"alloclab/internal/rules"
	"alloclab/internal/validate"
)

func main() {
	var (
		clientsPath = flag.String("clients", "", "clients JSON file")
		workersPath = flag.String("workers", "", "workers JSON file")
		tasksPath   = flag.String("tasks", "", "tasks JSON file")
		rulesPath   = flag.String("rules", "", "allocation rules JSON file (optional)")
		hoursPerDay = flag.Int("hours", validate.DefaultHoursPerDay, "working hours per day for capacity checks")
		asJSON      = flag.Bool("json", false, "print the summary as JSON")
		applyFixes  = flag.Bool("fix", false, "apply auto-fixes before the final report")
		outDir      = flag.String("out", "", "write the cleaned export bundle to this directory (requires zero errors)")
	)
	flag.Parse()

	d := entity.Dataset{}
	mustLoad(*clientsPath, &d.Clients)
	mustLoad(*workersPath, &d.Workers)
	mustLoad(*tasksPath, &d.Tasks)

	var set rules.Set
	if *rulesPath != "" {
		mustLoad(*rulesPath, &set)
	}

	opts := validate.Options{HoursPerDay: *hoursPerDay}
	summary := validate.AllWithRules(d.Clients, d.Workers, d.Tasks, set, opts)

	if *applyFixes && summary.TotalErrors > 0 {
		advisor, err := fix.NewAdvisor()
		if err != nil {
			log.Fatalf("fix advisor: %v", err)
		}
		var report fix.BulkReport
		d, report = advisor.BulkApply(d, summary.AllErrors())
		fmt.Fprintf(os.Stderr, "auto-fix: %d fixed, %d skipped\n", report.FixedCount, report.SkippedCount)
		summary = validate.AllWithRules(d.Clients, d.Workers, d.Tasks, set, opts)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			log.Fatalf("encode summary: %v", err)
		}
	} else {
		printSummary(summary)
	}

	if *outDir != "" {
		writeBundle(*outDir, d, set, opts)
	}

	if summary.TotalErrors > 0 {
		os.Exit(1)
	}
}

func mustLoad(path string, v any) {
	if path == "" {
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}
}

func printSummary(s validate.Summary) {
	sections := []struct {
		name string
		res  validate.Result
	}{
		{"clients", s.Clients},
		{"workers", s.Workers},
		{"tasks", s.Tasks},
		{"cross-entity", s.CrossEntity},
	}
	for _, sec := range sections {
		for _, e := range sec.res.Errors {
			fmt.Printf("ERROR   [%s] %s\n", sec.name, describe(e))
		}
		for _, w := range sec.res.Warnings {
			fmt.Printf("WARNING [%s] %s\n", sec.name, describe(w))
		}
	}
	fmt.Printf("%d error(s), %d warning(s)\n", s.TotalErrors, s.TotalWarnings)
}

func describe(e validate.Error) string {
	if e.RowIndex == validate.AggregateRow {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("row %d %s: %s", e.RowIndex, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.RowIndex, e.Message)
}

func writeBundle(dir string, d entity.Dataset, set rules.Set, opts validate.Options) {
	bundle, err := export.Build(d, set, opts)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("create %s: %v", dir, err)
	}
	files := map[string][]byte{
		"clients.json": bundle.Clients,
		"workers.json": bundle.Workers,
		"tasks.json":   bundle.Tasks,
		"rules.json":   bundle.Rules,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			log.Fatalf("write %s: %v", name, err)
		}
	}
	fmt.Fprintf(os.Stderr, "export bundle written to %s\n", dir)
}
