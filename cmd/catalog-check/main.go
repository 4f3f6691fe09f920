// catalog-check loads and compiles a rule catalog and reports what it holds.
// It exits non-zero when the catalog does not validate.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/petrarca/auto-ci/internal/pipeline"
	"github.com/petrarca/auto-ci/internal/rules"
	"github.com/petrarca/auto-ci/internal/scanner"
)

func main() {
	dir := flag.String("dir", "", "Directory with category YAML files (default: embedded catalog)")
	flag.Parse()

	if err := run(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	start := time.Now()

	t1 := time.Now()
	var (
		catalog *rules.Catalog
		err     error
	)
	if dir != "" {
		catalog, err = rules.LoadExternalCatalog(dir)
	} else {
		catalog, err = rules.LoadEmbeddedCatalog()
	}
	if err != nil {
		return err
	}
	fmt.Printf("LoadCatalog: %v (%d rules)\n", time.Since(t1), catalog.RuleCount())

	for _, cat := range catalog.Categories() {
		fmt.Printf("  %-18s %3d rules\n", cat.Name, len(cat.Rules))
	}

	t2 := time.Now()
	if _, err := scanner.New(catalog); err != nil {
		return err
	}
	fmt.Printf("NewScanner: %v\n", time.Since(t2))

	t3 := time.Now()
	if _, err := pipeline.NewRulesEngine(nil); err != nil {
		return err
	}
	fmt.Printf("LoadPipelineRules: %v\n", time.Since(t3))

	fmt.Printf("\nTotal init: %v\n", time.Since(start))
	return nil
}
