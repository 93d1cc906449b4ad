// Package logger provides structured logging for the video scraper.
//
// It wraps zerolog behind a small Logger interface so that components can
// take a logger as a dependency and tests can swap in TestLogger or a nop
// logger.
//
// Basic usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "debug"})
//
//	log := logger.GetLogger().WithField("component", "fetcher")
//	log.InfoWithFields("feed page processed", map[string]interface{}{
//	    "cursor":     0,
//	    "urls_found": 12,
//	})
//
// Console output goes to stderr so that it never interleaves with progress
// bars written to stdout. When a log file is configured, every event is
// written there as JSON and only warnings and errors reach the console.
package logger
