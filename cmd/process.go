package cmd

import (
	"log"
	"os"

	"github.com/nick-youngblut/CLdb-sub002/config"
	"github.com/nick-youngblut/CLdb-sub002/internal/cldb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// processCmd runs the spacer/DR BLAST-hit post-processing pipeline end
// to end: search (or read a precomputed result table), classify,
// annotate, report.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Classify and annotate spacer BLAST hits",
	Run:   runProcess,
	Long: `Run the spacer/direct-repeat BLAST-hit post-processing pipeline.

Queries are read from a FASTA file whose ids follow the
"<locus>_spacer_<n>" / "<locus>_DR_<n>" convention. Hits come either
from running blastn against --db, or from a precomputed tabular result
file (--blast-output). Direct repeat hits build the array adjacency
index; every spacer hit is then extended to its full-length
protospacer, classified, and annotated with PAM windows and a seed
mismatch profile.`,
	Example: "  cldb process --queries spacers.fa --db genomes --genomes genomes.fa --out hits.tsv",
}

func init() {
	f := processCmd.Flags()

	f.String("queries", "", "FASTA file of spacer and DR query sequences (required)")
	f.String("db", "", "path to the BLAST database of subject genomes (required)")
	f.String("blast-output", "", "precomputed blastn tabular output; skips running blastn")
	f.String("genomes", "", "FASTA file of subject genomes; falls back to blastdbcmd on --db")
	f.String("regions", "", "TSV of spacer region metadata (query, region and spacer bounds)")
	f.String("out", "", "output path of the hit table (default stdout)")
	f.String("profile-out", "", "output path of the by-position mismatch profile table")
	f.String("store", "", "directory of the record store; unset disables persistence")
	f.Bool("progress", false, "render a progress bar")

	f.Int("flank", 10, "bp of context beyond the full-length protospacer")
	f.Int("padding", 30, "bp of slack for DR-adjacency windows")
	f.Float64("min-align-fraction", 0.66, "DR-hit quality floor: min aligned fraction of the query")
	f.Float64("max-evalue", 10, "DR-hit quality floor: max e-value")
	f.Int("min-adjacent-sides", 1, "DR sides (1 or 2) required to call an array hit")
	f.Int("seed-first", 1, "first seed position")
	f.Int("seed-last", 8, "last seed position")
	f.String("seed-side", "up", "protospacer end the seed is counted from: up or down")
	f.Bool("ignore-gaps", true, "exclude gapped alignment columns from mismatch counts")
	f.Int("threads", 0, "concurrent workers (default: CPUs-1)")

	for flag, key := range map[string]string{
		"flank":              "flank",
		"padding":            "padding",
		"min-align-fraction": "filter.min-align-fraction",
		"max-evalue":         "filter.max-evalue",
		"min-adjacent-sides": "min-adjacent-sides",
		"seed-first":         "seed.first",
		"seed-last":          "seed.last",
		"seed-side":          "seed.side",
		"ignore-gaps":        "ignore-gaps",
	} {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			log.Fatalf("%v", err)
		}
	}

	rootCmd.AddCommand(processCmd)
}

// runProcess is the Run handler of processCmd.
func runProcess(cmd *cobra.Command, args []string) {
	conf, err := config.New()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	if threads, _ := cmd.Flags().GetInt("threads"); threads > 0 {
		conf.Threads = threads
	}

	queryFile, _ := cmd.Flags().GetString("queries")
	db, _ := cmd.Flags().GetString("db")
	if queryFile == "" || db == "" {
		log.Fatalf("both --queries and --db are required")
	}

	queries, err := cldb.ReadQueryFASTA(queryFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if regions, _ := cmd.Flags().GetString("regions"); regions != "" {
		if err := cldb.ReadRegions(regions, queries); err != nil {
			log.Fatalf("%v", err)
		}
	}

	// decode a precomputed result table, or run blastn ourselves
	var run cldb.Run
	if blastOut, _ := cmd.Flags().GetString("blast-output"); blastOut != "" {
		dat, err := os.ReadFile(blastOut)
		if err != nil {
			log.Fatalf("failed to read %s: %v", blastOut, err)
		}
		if run, err = cldb.Decode(string(dat), db); err != nil {
			log.Fatalf("%v", err)
		}
	} else {
		dir, err := os.MkdirTemp("", "cldb-blast")
		if err != nil {
			log.Fatalf("failed to create working dir: %v", err)
		}
		defer os.RemoveAll(dir)

		if run, err = cldb.Blast(queries, db, dir, conf.Blastn, conf.Threads); err != nil {
			log.Fatalf("%v", err)
		}
	}

	// genome FASTA if we have one, blastdbcmd against the BLAST db if not
	var fetcher cldb.Fetcher
	if genomes, _ := cmd.Flags().GetString("genomes"); genomes != "" {
		faidx, err := cldb.NewFaidxFetcher(genomes)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer faidx.Close()
		fetcher = faidx
	} else {
		fetcher = cldb.NewDBFetcher(run, db, conf.Blastdbcmd)
	}

	progress, _ := cmd.Flags().GetBool("progress")
	opt := cldb.Options{
		Flank:            conf.Flank,
		Padding:          conf.Padding,
		MinAlignFraction: conf.Filter.MinAlignFraction,
		MaxEvalue:        conf.Filter.MaxEvalue,
		MinAdjacentSides: conf.MinAdjacentSides,
		Seed: cldb.SeedIndex{
			First: conf.Seed.First,
			Last:  conf.Seed.Last,
			Side:  conf.Seed.Side,
		},
		IgnoreGaps: conf.IgnoreGaps,
		PAMUp:      cldb.Window{Start: conf.PAM.UpStart, End: conf.PAM.UpEnd},
		PAMDown:    cldb.Window{Start: conf.PAM.DownStart, End: conf.PAM.DownEnd},
		Threads:    conf.Threads,
		Progress:   progress,
	}

	records, stats, perr := cldb.Process([]cldb.Run{run}, queries, fetcher, cldb.NewNWAligner(), opt)
	if perr != nil {
		log.Printf("warning: some units failed: %v", perr)
	}
	log.Printf("%s", stats)

	out := os.Stdout
	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		if out, err = os.Create(outPath); err != nil {
			log.Fatalf("failed to create %s: %v", outPath, err)
		}
		defer out.Close()
	}
	if err := cldb.WriteHitsTSV(out, records); err != nil {
		log.Fatalf("failed to write hit table: %v", err)
	}

	if profilePath, _ := cmd.Flags().GetString("profile-out"); profilePath != "" {
		pf, err := os.Create(profilePath)
		if err != nil {
			log.Fatalf("failed to create %s: %v", profilePath, err)
		}
		defer pf.Close()
		if err := cldb.WriteProfileTSV(pf, records); err != nil {
			log.Fatalf("failed to write profile table: %v", err)
		}
	}

	if storeDir, _ := cmd.Flags().GetString("store"); storeDir != "" {
		store, err := cldb.OpenStore(storeDir)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer store.Close()

		res, err := store.WriteBatch(records, stats)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if !res.Ok() {
			for key, ferr := range res.Failed {
				log.Printf("warning: failed to persist %s: %v", key, ferr)
			}
			log.Printf("persisted %d of %d records", res.Written, len(records))
		}
	}
}
