package logging

// Field name constants for structured logging.
const (
	// Common fields.
	FieldError  = "error"
	FieldPath   = "path"
	FieldOutput = "output"
	FieldSource = "source"

	// Patch fields.
	FieldReplacements = "replacements"
	FieldOffset       = "offset"
	FieldLength       = "length"
	FieldBytes        = "bytes"
	FieldOriginalSize = "original_size"
	FieldFinalSize    = "final_size"
	FieldSegment      = "segment"
	FieldSection      = "section"
	FieldKind         = "kind"

	// Prelink fields.
	FieldKext     = "kext"
	FieldBundleID = "bundle_id"

	// Configuration fields.
	FieldBackup   = "backup"
	FieldDryRun   = "dry_run"
	FieldFormat   = "format"
	FieldOverlaps = "overlaps"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
