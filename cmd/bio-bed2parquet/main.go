package main

// See doc.go for documentation
import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/bedparquet/encoding/converter"
)

// args holds the positional arguments.
type args struct {
	inputPath  string
	outputPath string
}

func parseArgs(positional []string) (args, error) {
	switch {
	case len(positional) < 1 || positional[0] == "":
		return args{}, errors.E(errors.Invalid, "missing input BED path")
	case len(positional) < 2 || positional[1] == "":
		return args{}, errors.E(errors.Invalid, "missing output parquet path")
	case len(positional) > 2:
		return args{}, errors.E(errors.Invalid, fmt.Sprintf("expected 2 arguments, got %d", len(positional)))
	}
	return args{inputPath: positional[0], outputPath: positional[1]}, nil
}

func run(ctx context.Context, a args) error {
	_, err := converter.ConvertToParquet(ctx, converter.DefaultOpts, a.inputPath, a.outputPath)
	return err
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s input.bed output.parquet\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	a, err := parseArgs(flag.Args())
	if err != nil {
		log.Fatalf("Problem parsing arguments: %v", err)
	}
	if err := run(vcontext.Background(), a); err != nil {
		log.Fatalf("Application Error: %v", err)
	}
}
