// annographix-index reads an annotated corpus (a document file and an
// annotation file) and submits it to a running annographix server in
// batches. Before sending anything it fetches the target index's settings
// and verifies the schema attributes required by the structured matcher.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pombredanne/annographix/config"
	"github.com/pombredanne/annographix/internal/client"
	"github.com/pombredanne/annographix/internal/reader"
	"github.com/pombredanne/annographix/internal/schema"
)

const defaultBatchSize = 100

func usage(err string) {
	fmt.Fprintln(os.Stderr, "Error: "+err)
	fmt.Fprintf(os.Stderr, "Usage: %s -t <text file> -a <annotation file> -u <server URI> "+
		"[-i <index name>] [-n <batch size>] [--textField <name>] [--annotField <name>]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	var (
		textFile   = flag.String("t", "", "Text file (one <DOC> block per document)")
		annotFile  = flag.String("a", "", "Annotation file")
		serverURI  = flag.String("u", "", "Target server URI")
		indexName  = flag.String("i", "docs", "Index name")
		batchSize  = flag.Int("n", defaultBatchSize, "Batch size")
		textField  = flag.String("textField", config.DefaultTextField, "Annotated text field name")
		annotField = flag.String("annotField", config.DefaultAnnotField, "Annotation field name")
	)
	flag.Parse()

	if *textFile == "" {
		usage("Specify Text File")
	}
	if *annotFile == "" {
		usage("Specify Annotation File")
	}
	if *serverURI == "" {
		usage("Specify Server URI")
	}

	log.Printf("Annotated text field: '%s', annotation field: '%s'", *textField, *annotField)

	ctx := context.Background()
	cl := client.New(*serverURI)

	// Sanity-check the index configuration before indexing anything: the
	// structured matcher needs positions on both fields and offsets on the
	// text field.
	settings, err := cl.FetchSettings(ctx, *indexName)
	if err != nil {
		log.Fatalf("Failed to fetch settings of index '%s': %v", *indexName, err)
	}
	if settings.TextField.Name != *textField {
		log.Fatalf("Index '%s' uses text field '%s', not '%s'", *indexName, settings.TextField.Name, *textField)
	}
	if settings.AnnotField.Name != *annotField {
		log.Fatalf("Index '%s' uses annotation field '%s', not '%s'", *indexName, settings.AnnotField.Name, *annotField)
	}
	if err := schema.Validate(&settings); err != nil {
		log.Fatalf("Schema check failed: %v", err)
	}
	log.Printf("Config is fine!")

	indexer := client.NewBatchIndexer(ctx, cl, *indexName, 0)
	if err := reader.ReadDocs(*textFile, *annotFile, *batchSize, indexer); err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}
	if err := indexer.Close(); err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}

	log.Printf("Indexed %d documents into '%s'", indexer.DocsSent(), *indexName)
}
