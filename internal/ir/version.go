package ir

// Version is the scorecard release reported by the CLI.
const Version = "0.1.0"
