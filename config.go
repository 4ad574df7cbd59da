// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mocus

import (
	"io"
	"log/slog"
)

// Settings stores the values of the different parameters of an analysis.
type Settings struct {
	limitOrder int          // maximum product order, 0 if no limit
	parallel   int          // concurrent analyses in AnalyzeAll, 0 if unbounded
	logger     *slog.Logger // progress logging, disabled by default
}

func makesettings() Settings {
	return Settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LimitOrder is a configuration option (function). Used as a parameter in
// NewAnalysis it bounds the size of the generated cut sets: sets with more
// literals than the limit are truncated away and the analysis records a
// warning. The products are then a subset of the true family of minimal cut
// sets. The default value (0) means that there is no limit.
func LimitOrder(limit int) func(*Settings) {
	return func(s *Settings) {
		if limit > 0 {
			s.limitOrder = limit
		}
	}
}

// WithLogger is a configuration option (function). Used as a parameter in
// NewAnalysis it installs a logger receiving progress messages at debug
// level and truncation warnings. By default messages are discarded.
func WithLogger(logger *slog.Logger) func(*Settings) {
	return func(s *Settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Parallel is a configuration option (function). Used as a parameter in
// AnalyzeAll it bounds the number of analyses running concurrently. The
// default value (0) runs one goroutine per graph.
func Parallel(n int) func(*Settings) {
	return func(s *Settings) {
		if n > 0 {
			s.parallel = n
		}
	}
}
