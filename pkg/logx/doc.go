// Package logx configures fgfbot's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//   - Optional journald output when running under systemd
//   - Optional Telegram operator sink (min-level + rate limiting)
package logx
