package config

// ScanConfig controls bounded file discovery during LEARN. Adapted from
// the project's WorldConfig (internal/config/world.go), generalized from
// Go-AST/Cartographer concerns to a closed HARD_EXCLUSIONS set.
type ScanConfig struct {
	// HardExclusions is the fixed set of directory names LEARN never
	// descends into, regardless of any other configuration. Any walk
	// without this set applied is a contract violation — it is what every
	// directory traversal must consult.
	HardExclusions []string `yaml:"hard_exclusions"`
	// MaxFileBytes skips files larger than this during AST parsing.
	MaxFileBytes int64 `yaml:"max_file_bytes"`
	// Workers caps concurrent file-parse goroutines (file
	// walking/parsing may be parallelized as long as output is re-sorted).
	Workers int `yaml:"workers"`
}

// DefaultScanConfig returns the default HARD_EXCLUSIONS set: node_modules,
// build outputs, artifact dirs, .git.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		HardExclusions: []string{
			"node_modules",
			".git",
			"dist",
			"build",
			".next",
			"out",
			"coverage",
			".cache",
			"vendor",
		},
		MaxFileBytes: 2 * 1024 * 1024,
		Workers:      8,
	}
}

// IsHardExcluded reports whether dirName is in the HARD_EXCLUSIONS set.
func (c ScanConfig) IsHardExcluded(dirName string) bool {
	for _, ex := range c.HardExclusions {
		if ex == dirName {
			return true
		}
	}
	return false
}
