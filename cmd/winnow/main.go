// Command winnow loads a corpus and a query from a YAML file, derives
// the query's limiting filter, and evaluates both against an in-memory
// index to report how well the filter prunes.
//
// Input file shape:
//
//	docs:
//	  - name: [Hans, Alvia]
//	    body: [some, tokens]
//	query:
//	  bool:
//	    - occur: must
//	      query: {term: {field: name, text: Hans}}
//	    - occur: must_not
//	      query: {phrase: {field: body, terms: [some, tokens]}}
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/winnowdb/winnow/limit"
	"github.com/winnowdb/winnow/memindex"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: winnow [-v] <file.yaml>")
		os.Exit(1)
	}
	logger := zap.Must(zap.NewProduction())
	if verbose {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer logger.Sync()
	if err := run(flag.Arg(0), logger); err != nil {
		logger.Fatal("winnow failed", zap.Error(err))
	}
}

type inputFile struct {
	Docs  []map[string][]string `yaml:"docs"`
	Query querySpec             `yaml:"query"`
}

func run(path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var input inputFile
	if err := yaml.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	q, err := input.Query.build()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	builder := memindex.NewBuilder()
	for _, doc := range input.Docs {
		builder.Index(doc)
	}
	snap := builder.Snapshot()
	logger.Info("indexed corpus",
		zap.Int("docs", len(input.Docs)),
		zap.String("snapshot", snap.ID().String()))

	filter := limit.Filter(q)
	if filter == nil {
		logger.Info("no safe approximation exists; the query must run unfiltered",
			zap.String("query", q.String()))
		return nil
	}
	logger.Info("derived limiting filter",
		zap.String("query", q.String()),
		zap.String("filter", filter.String()))

	var original, limited *roaring.Bitmap
	var group errgroup.Group
	group.Go(func() error {
		var err error
		original, err = snap.Search(q)
		return err
	})
	group.Go(func() error {
		var err error
		limited, err = snap.Search(filter)
		return err
	})
	if err := group.Wait(); err != nil {
		return err
	}

	missed := roaring.AndNot(original, limited)
	logger.Info("evaluated",
		zap.Uint64("original_matches", original.GetCardinality()),
		zap.Uint64("filter_matches", limited.GetCardinality()),
		zap.Uint64("pruned", uint64(len(input.Docs))-limited.GetCardinality()))
	if !missed.IsEmpty() {
		return fmt.Errorf("filter dropped %d matching documents: %v",
			missed.GetCardinality(), missed.ToArray())
	}
	fmt.Printf("%s\nfilter: %s\nmatches: %v\n", q, filter, original.ToArray())
	return nil
}
