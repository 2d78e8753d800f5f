// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// SeedConfig defines the seed region of a protospacer. Offsets are
// 1-based and counted from the side named in Side ("up" for the 5'
// end of the protospacer, "down" for the 3' end).
type SeedConfig struct {
	// first position of the seed, relative to Side
	First int `mapstructure:"first"`

	// last position of the seed, relative to Side
	Last int `mapstructure:"last"`

	// which protospacer end the offsets are counted from: "up" or "down"
	Side string `mapstructure:"side"`
}

// PAMConfig holds the upstream and downstream PAM windows, as 1-based
// offsets counted outward from the protospacer boundary. Negative
// offsets are upstream of the 5' end, positive ones downstream of the
// 3' end.
type PAMConfig struct {
	UpStart   int `mapstructure:"up-start"`
	UpEnd     int `mapstructure:"up-end"`
	DownStart int `mapstructure:"down-start"`
	DownEnd   int `mapstructure:"down-end"`
}

// FilterConfig is the quality floor applied to direct repeat hits
// before they enter the adjacency index.
type FilterConfig struct {
	// minimum aligned fraction of the DR query (align_length / query_length)
	MinAlignFraction float64 `mapstructure:"min-align-fraction"`

	// maximum e-value for a DR hit to be trusted
	MaxEvalue float64 `mapstructure:"max-evalue"`
}

// Config is the root-level settings struct and is a mix of settings
// available in settings.yaml and those available from the command line
type Config struct {
	// bp of context fetched beyond the full-length protospacer
	Flank int `mapstructure:"flank"`

	// bp of slack added to each side of a DR hit window when
	// testing spacer hits for array adjacency
	Padding int `mapstructure:"padding"`

	// 1 or 2: how many flanking DR sides a spacer hit needs
	// before it is called an array hit
	MinAdjacentSides int `mapstructure:"min-adjacent-sides"`

	// whether gapped alignment columns are excluded from mismatch counts
	IgnoreGaps bool `mapstructure:"ignore-gaps"`

	// number of concurrent workers for HSP processing
	Threads int `mapstructure:"threads"`

	// path to the blastn executable
	Blastn string `mapstructure:"blastn"`

	// path to the blastdbcmd executable
	Blastdbcmd string `mapstructure:"blastdbcmd"`

	// DR hit quality floor
	Filter FilterConfig `mapstructure:"filter"`

	// seed region definition
	Seed SeedConfig `mapstructure:"seed"`

	// PAM window definitions
	PAM PAMConfig `mapstructure:"pam"`
}

// SetDefaults registers the default value of every recognized setting
// with viper. Called before flag binding so flags win.
func SetDefaults() {
	viper.SetDefault("flank", 10)
	viper.SetDefault("padding", 30)
	viper.SetDefault("min-adjacent-sides", 1)
	viper.SetDefault("ignore-gaps", true)
	viper.SetDefault("threads", maxThreads())
	viper.SetDefault("blastn", "blastn")
	viper.SetDefault("blastdbcmd", "blastdbcmd")
	viper.SetDefault("filter.min-align-fraction", 0.66)
	viper.SetDefault("filter.max-evalue", 10.0)
	viper.SetDefault("seed.first", 1)
	viper.SetDefault("seed.last", 8)
	viper.SetDefault("seed.side", "up")
	viper.SetDefault("pam.up-start", -5)
	viper.SetDefault("pam.up-end", -1)
	viper.SetDefault("pam.down-start", 1)
	viper.SetDefault("pam.down-end", 5)
}

// New returns a new Config struct populated by Viper settings (either
// from the local settings.yaml) and/or command line arguments
func New() (Config, error) {
	SetDefaults()

	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode settings into struct: %v", err)
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects settings combinations the pipeline cannot honor.
func (c Config) Validate() error {
	if c.Flank < 0 {
		return fmt.Errorf("flank must be >= 0, got %d", c.Flank)
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must be >= 0, got %d", c.Padding)
	}
	if c.MinAdjacentSides != 1 && c.MinAdjacentSides != 2 {
		return fmt.Errorf("min-adjacent-sides must be 1 or 2, got %d", c.MinAdjacentSides)
	}
	if c.Filter.MinAlignFraction < 0 || c.Filter.MinAlignFraction > 1 {
		return fmt.Errorf("filter.min-align-fraction must be in [0,1], got %f", c.Filter.MinAlignFraction)
	}
	if c.Seed.First < 1 || c.Seed.Last < c.Seed.First {
		return fmt.Errorf("seed window [%d,%d] is not a positive 1-based range", c.Seed.First, c.Seed.Last)
	}
	if c.Seed.Side != "up" && c.Seed.Side != "down" {
		return fmt.Errorf("seed.side must be \"up\" or \"down\", got %q", c.Seed.Side)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", c.Threads)
	}
	return nil
}

// maxThreads is the default worker count: all but one CPU.
func maxThreads() int {
	threads := runtime.NumCPU() - 1
	if threads < 1 {
		threads = 1
	}
	return threads
}
