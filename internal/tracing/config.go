package tracing

// Config enables span export for backend calls.
type Config struct {
	// Output is stdout, stderr, or a file path. Defaults to stderr.
	Output string `yaml:"output" toml:"output"`
	// SampleRatio is the fraction of traces kept. Zero keeps every trace.
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`
	Enabled     bool    `yaml:"enabled" toml:"enabled"`
}

// GetSampleRatio returns the sample ratio, defaulting to 1.
func (c *Config) GetSampleRatio() float64 {
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		return 1
	}
	return c.SampleRatio
}
