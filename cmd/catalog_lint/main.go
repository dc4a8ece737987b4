package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/swapkart/tradein-backend/internal/catalog"
)

// catalog_lint validates a catalog seed file before it ships: every delta
// must parse, every base price must be a valid amount, and duplicate or
// reserved ids are reported. Exit code is non-zero on any finding.
func main() {
	path := flag.String("f", "config/catalog.seed.yaml", "path to the catalog seed file")
	flag.Parse()

	raw, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog_lint: %v\n", err)
		os.Exit(1)
	}

	snapshots, err := catalog.ParseSeed(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog_lint: %v\n", err)
		os.Exit(1)
	}

	findings := 0
	for category, snap := range snapshots {
		findings += lintSnapshot(category, snap)
	}
	if findings > 0 {
		fmt.Fprintf(os.Stderr, "catalog_lint: %d finding(s)\n", findings)
		os.Exit(1)
	}

	for category, snap := range snapshots {
		fmt.Printf("%s (version %s): %d questions, %d defects, %d accessories, %d products\n",
			category, snap.Version, len(snap.Questions), len(snap.Defects), len(snap.Accessories), len(snap.Products))
	}
}

func lintSnapshot(category string, snap *catalog.Snapshot) int {
	findings := 0
	report := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "%s: %s\n", category, fmt.Sprintf(format, args...))
		findings++
	}

	if snap.Version == "" {
		report("missing version")
	}

	seen := map[string]string{}
	checkID := func(kind, id string) {
		if id == "" {
			report("%s with empty id", kind)
			return
		}
		if prev, dup := seen[id]; dup {
			report("id %q used by both %s and %s", id, prev, kind)
			return
		}
		seen[id] = kind
	}

	for _, q := range snap.Questions {
		checkID("question", q.ID)
		if q.Kind != catalog.QuestionSingle && q.Kind != catalog.QuestionMulti {
			report("question %s has unknown kind %q", q.ID, q.Kind)
		}
		if len(q.Options) == 0 {
			report("question %s has no options", q.ID)
		}
		for _, o := range q.Options {
			checkID("option", o.ID)
		}
	}
	for _, d := range snap.Defects {
		if d.ID == catalog.NoDefectsID {
			// Reserved: the sentinel never carries a delta row of its own.
			report("defect list contains reserved id %q", catalog.NoDefectsID)
			continue
		}
		checkID("defect", d.ID)
	}
	for _, a := range snap.Accessories {
		checkID("accessory", a.ID)
	}
	for _, p := range snap.Products {
		checkID("product", p.ID)
		if len(p.Variants) == 0 {
			report("product %s has no variants", p.ID)
		}
		for _, v := range p.Variants {
			checkID("variant", v.ID)
			if v.BasePrice.IsNegative() {
				report("variant %s has negative base price %s", v.ID, v.BasePrice)
			}
		}
	}
	return findings
}
