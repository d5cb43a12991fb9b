package version

// Version is overwritten at build time via -ldflags "-X artrack/pkg/version.Version=...".
var Version = "v0.1.0-dev"
