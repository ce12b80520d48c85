package memory

import "time"

const (
	DefaultMaxHistoryMessages = 8
	DefaultMaxStoredVectors   = 40
	DefaultVectorSimilarityK  = 3
	DefaultSummaryInterval    = 6
	DefaultMinFactLength      = 16
	DefaultSummaryTokenBudget = 2000
	DefaultCacheSize          = 256
	DefaultProviderTimeout    = 30 * time.Second
)

type Options struct {
	MaxHistoryMessages int
	MaxStoredVectors   int
	VectorSimilarityK  int
	SummaryInterval    int
	MinFactLength      int

	// MinSimilarity drops facts scoring below it. Zero disables the filter.
	MinSimilarity float64

	// SummaryTokenBudget bounds the transcript handed to the summarizer.
	SummaryTokenBudget int

	// CacheSize is the number of snapshots kept in process. Negative disables
	// the cache.
	CacheSize int

	ProviderTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxHistoryMessages: DefaultMaxHistoryMessages,
		MaxStoredVectors:   DefaultMaxStoredVectors,
		VectorSimilarityK:  DefaultVectorSimilarityK,
		SummaryInterval:    DefaultSummaryInterval,
		MinFactLength:      DefaultMinFactLength,
		SummaryTokenBudget: DefaultSummaryTokenBudget,
		CacheSize:          DefaultCacheSize,
		ProviderTimeout:    DefaultProviderTimeout,
	}
}

// withDefaults replaces non-positive limits with the defaults.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxHistoryMessages <= 0 {
		o.MaxHistoryMessages = d.MaxHistoryMessages
	}
	if o.MaxStoredVectors <= 0 {
		o.MaxStoredVectors = d.MaxStoredVectors
	}
	if o.VectorSimilarityK <= 0 {
		o.VectorSimilarityK = d.VectorSimilarityK
	}
	if o.SummaryInterval <= 0 {
		o.SummaryInterval = d.SummaryInterval
	}
	if o.MinFactLength < 0 {
		o.MinFactLength = d.MinFactLength
	}
	if o.SummaryTokenBudget <= 0 {
		o.SummaryTokenBudget = d.SummaryTokenBudget
	}
	if o.CacheSize == 0 {
		o.CacheSize = d.CacheSize
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = d.ProviderTimeout
	}
	return o
}
