package config

import (
	"fmt"
	"strings"
	"time"
)

// DefaultCharset mirrors the usual CTF flag alphabet: letters, digits and the
// flag wrapper symbols.
const DefaultCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789{}_"

// Aggregation selects how per-candidate latency samples collapse into one
// value. Mean is the original behavior; median and trimmed mean are available
// for noisy links.
type Aggregation string

const (
	AggregationMean    Aggregation = "mean"
	AggregationMedian  Aggregation = "median"
	AggregationTrimmed Aggregation = "trimmed"
)

// Config holds all the configuration for the timedrip prober.
// Fields are populated by Viper from flags, env and an optional config file.
type Config struct {
	TargetURL string // Endpoint vulnerable to the timing side channel
	ParamName string // Query parameter carrying the candidate string

	Charset     string // Characters tried at each position, in tie-break order
	CharsetFile string // Optional file overriding Charset (one entry per line)
	Seed        string // Known prefix to start from; may be empty

	Threshold       time.Duration // Average latency above which a candidate is accepted
	Attempts        int           // Requests per candidate; their aggregate is the measurement
	RequestTimeout  time.Duration // Per-request ceiling; failed trials count as this
	TrialDelay      time.Duration // Pacing delay between consecutive trials
	MaxSecretLength int           // Hard cap on discovered length
	TopSlowest      int           // Ranking size reported on a stall
	Aggregation     Aggregation   // Sample aggregation policy
	CheckReflection bool          // Parse bodies and log candidate reflection

	UserAgent     string
	ProxyURL      string
	CustomHeaders []string // "Name: Value" entries added to every request
	Insecure      bool     // Skip TLS certificate verification

	OutputFile   string // Report destination; empty means stdout
	OutputFormat string // "text" or "json"
	Verbosity    string
	NoColor      bool
	Silent       bool
}

// GetDefaultConfig returns a Config populated with default values. Viper sets
// these as flag defaults and overrides them from file/env/flags.
func GetDefaultConfig() *Config {
	return &Config{
		TargetURL:       "",
		ParamName:       "q",
		Charset:         DefaultCharset,
		CharsetFile:     "",
		Seed:            "",
		Threshold:       170 * time.Millisecond,
		Attempts:        7,
		RequestTimeout:  3 * time.Second,
		TrialDelay:      0,
		MaxSecretLength: 128,
		TopSlowest:      5,
		Aggregation:     AggregationMean,
		CheckReflection: false,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		ProxyURL:        "",
		CustomHeaders:   []string{},
		Insecure:        false,
		OutputFile:      "",
		OutputFormat:    "text",
		Verbosity:       "info",
		NoColor:         false,
		Silent:          false,
	}
}

// CharsetRunes returns the charset as an ordered rune slice with duplicates
// removed, preserving first occurrence. Order matters: it is the tie-break
// for which character wins a position.
func (c *Config) CharsetRunes() []rune {
	seen := make(map[rune]struct{})
	var runes []rune
	for _, r := range c.Charset {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		runes = append(runes, r)
	}
	return runes
}

// Validate checks the Config after it has been populated by Viper.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("target URL cannot be empty")
	}
	if c.ParamName == "" {
		return fmt.Errorf("param name cannot be empty")
	}
	if len(c.CharsetRunes()) == 0 {
		return fmt.Errorf("charset cannot be empty")
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if c.Attempts <= 0 {
		return fmt.Errorf("attempts must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Threshold >= c.RequestTimeout {
		return fmt.Errorf("threshold (%s) must be below the request timeout (%s), otherwise no candidate can cross it", c.Threshold, c.RequestTimeout)
	}
	if c.TrialDelay < 0 {
		return fmt.Errorf("trial delay cannot be negative")
	}
	if c.MaxSecretLength <= 0 {
		return fmt.Errorf("max secret length must be positive")
	}
	if len(c.Seed) > c.MaxSecretLength {
		return fmt.Errorf("seed length (%d) exceeds max secret length (%d)", len(c.Seed), c.MaxSecretLength)
	}
	if c.TopSlowest <= 0 {
		return fmt.Errorf("top slowest count must be positive")
	}
	switch c.Aggregation {
	case AggregationMean, AggregationMedian, AggregationTrimmed:
	default:
		return fmt.Errorf("unknown aggregation policy '%s' (want mean, median or trimmed)", c.Aggregation)
	}
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("outputFormat must be 'text' or 'json'")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("userAgent cannot be empty")
	}
	if c.Verbosity == "" {
		return fmt.Errorf("verbosity cannot be empty")
	}
	return nil
}

// String remains useful for debugging.
func (c *Config) String() string {
	return fmt.Sprintf("Target: %s, Param: %s, Charset (len): %d, Seed: '%s', Threshold: %s, Attempts: %d, Timeout: %s, TrialDelay: %s, MaxLen: %d, Aggregation: %s, Headers (count): %d",
		c.TargetURL, c.ParamName, len(c.CharsetRunes()), c.Seed, c.Threshold, c.Attempts, c.RequestTimeout, c.TrialDelay, c.MaxSecretLength, c.Aggregation, len(c.CustomHeaders))
}

// ParseAggregation validates an aggregation policy string.
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(strings.ToLower(strings.TrimSpace(s))) {
	case AggregationMean:
		return AggregationMean, nil
	case AggregationMedian:
		return AggregationMedian, nil
	case AggregationTrimmed:
		return AggregationTrimmed, nil
	default:
		return "", fmt.Errorf("unknown aggregation policy '%s'", s)
	}
}
