// annographix-query reads structured queries from a file (one query per
// line) and runs them against a running annographix server, printing the
// matching document numbers.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pombredanne/annographix/internal/client"
	"github.com/pombredanne/annographix/services"
)

const defaultNumResults = 100

func usage(err string) {
	fmt.Fprintln(os.Stderr, "Error: "+err)
	fmt.Fprintf(os.Stderr, "Usage: %s -q <query file> -u <server URI> [-i <index name>] [-n <num results>]\n", os.Args[0])
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	var (
		queryFile  = flag.String("q", "", "Query file (one structured query per line)")
		serverURI  = flag.String("u", "", "Target server URI")
		indexName  = flag.String("i", "docs", "Index name")
		numResults = flag.Int("n", defaultNumResults, "Maximum number of results per query")
		withSpans  = flag.Bool("spans", false, "Print the bound occurrence spans of each hit")
	)
	flag.Parse()

	if *queryFile == "" {
		usage("Specify Query File")
	}
	if *serverURI == "" {
		usage("Specify Server URI")
	}

	file, err := os.Open(*queryFile)
	if err != nil {
		log.Fatalf("Failed to open query file: %v", err)
	}
	defer file.Close()

	ctx := context.Background()
	cl := client.New(*serverURI)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		queryText := strings.TrimSpace(scanner.Text())
		if queryText == "" || strings.HasPrefix(queryText, "#!") {
			continue
		}

		result, err := cl.Search(ctx, *indexName, services.SearchQuery{
			Query:        queryText,
			NumResults:   *numResults,
			IncludeSpans: *withSpans,
		})
		if err != nil {
			log.Fatalf("Query '%s' failed: %v", queryText, err)
		}

		fmt.Printf("Query: %s\n", queryText)
		fmt.Printf("Matched %d documents (%d ms)\n", result.Total, result.Took)
		for _, hit := range result.Hits {
			fmt.Printf("  %s\n", hit.DocNo)
			for _, span := range hit.Spans {
				fmt.Printf("    %s [%d-%d] id=%d parent=%d\n",
					span.Token, span.Start, span.End, span.AnnotID, span.ParentID)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read query file: %v", err)
	}
}
