package triage

// Version is the library version, overridable at build time with
// -ldflags "-X github.com/viridien/triage.Version=...".
var Version = "0.1.0"
