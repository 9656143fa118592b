package services

import (
	"almanac/internal/bars"
	"almanac/internal/buckets"
	"almanac/internal/config"
	"almanac/internal/filters"
	"almanac/internal/hodlod"
)

// Request describes one analysis run
type Request struct {
	Path            string
	IntermarketPath string
	// From and To bound the loaded dates; zero values are open
	From bars.Date
	To   bars.Date

	Quick      filters.QuickFilter
	Operator   filters.Operator
	Predicates []filters.Predicate
	Session    filters.SessionCriteria

	Buckets      buckets.Options
	Rolling      hodlod.RollingOptions
	TrimOutliers bool
	// MinDays gates the extreme-of-day sections
	MinDays int
	// MinuteHour selects the hour broken down by minute; nil uses the
	// earliest hour in the filtered bars.
	MinuteHour *int
}

// NewRequest builds a request from the loaded configuration
func NewRequest(cfg *config.Config) (Request, error) {
	from, to, err := cfg.DateRange()
	if err != nil {
		return Request{}, err
	}
	return Request{
		Path:            cfg.Input.Path,
		IntermarketPath: cfg.Input.IntermarketPath,
		From:            from,
		To:              to,
		Quick:           filters.QuickFilter(cfg.Filters.Quick),
		Operator:        filters.Operator(cfg.Filters.Operator),
		Predicates:      cfg.Filters.Predicates,
		Session:         cfg.Filters.Session,
		Buckets:         cfg.BucketOptions(),
		Rolling:         cfg.RollingOptions(),
		TrimOutliers:    cfg.Analysis.TrimOutliers,
		MinDays:         cfg.Analysis.MinDays,
	}, nil
}

// withDefaults fills the zero values a caller may leave out
func (r Request) withDefaults() Request {
	if r.Quick == "" {
		r.Quick = filters.QuickAll
	}
	if r.Operator == "" {
		r.Operator = filters.AND
	}
	if r.Buckets == (buckets.Options{}) {
		r.Buckets = buckets.DefaultOptions()
	}
	if r.Rolling == (hodlod.RollingOptions{}) {
		r.Rolling = hodlod.DefaultRollingOptions()
	}
	if r.MinDays < 1 {
		r.MinDays = hodlod.MinDaysForAnalysis
	}
	return r
}
