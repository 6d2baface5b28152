package config

// Version is the fredmcp release version. Overridden at build time via
// -ldflags "-X github.com/derickschaefer/fredmcp/internal/config.Version=...".
var Version = "1.0.0"
