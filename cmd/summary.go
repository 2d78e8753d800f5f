package cmd

import (
	"log"
	"os"

	"github.com/nick-youngblut/CLdb-sub002/internal/cldb"
	"github.com/spf13/cobra"
)

// summaryCmd reads a persisted batch back out of the record store and
// reports its end-of-run counts and hit table.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Report the counts and hit table of a stored batch",
	Run:   runSummary,
	Long: `Print the end-of-run summary of a previously persisted batch:
total, filtered-by-quality, classified-array, classified-protospacer and
lookup-failure counts, optionally followed by the stored hit table.`,
	Example: "  cldb summary --store ./records --hits",
}

func init() {
	summaryCmd.Flags().String("store", "", "directory of the record store (required)")
	summaryCmd.Flags().Bool("hits", false, "also print the stored hit table")
	rootCmd.AddCommand(summaryCmd)
}

// runSummary is the Run handler of summaryCmd.
func runSummary(cmd *cobra.Command, args []string) {
	storeDir, _ := cmd.Flags().GetString("store")
	if storeDir == "" {
		log.Fatalf("--store is required")
	}

	store, err := cldb.OpenStore(storeDir)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%s", stats)

	if hits, _ := cmd.Flags().GetBool("hits"); hits {
		records, err := store.Records()
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := cldb.WriteHitsTSV(os.Stdout, records); err != nil {
			log.Fatalf("failed to write hit table: %v", err)
		}
	}
}
