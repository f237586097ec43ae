package types

// Version is the canonical project version.
// The CLI, the recording format and the archive records share this version.
const Version = "0.3.0"

// RecordingVersion is the version stamped into session recording headers.
// Bumped only when the recording layout changes.
const RecordingVersion = "1"
