// Package logging provides structured logging for linkmcp with unified
// log handling and level filtering.
//
// The package is a thin layer over Go's standard slog package. Every log
// entry carries a subsystem identifier so output can be filtered by
// component:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//	logging.Info("Server", "listening on %s", addr)
//	logging.Error("Store", err, "failed to open database at %s", path)
//
// Log levels are Debug, Info, Warn and Error. ParseLevel maps
// configuration strings to levels.
//
// When the MCP transport is stdio the protocol owns stdout, so the logger
// must be initialized with stderr (the serve command does this).
package logging
