package types

// Version is the canonical project version.
// The CLI, the lockfile format, and the result payload schema share this
// version; bump it whenever any of those surfaces change shape.
const Version = "0.4.0"
