// Package manifest loads patch manifests: YAML documents listing the byte
// ranges to replace in a target file and the data replacing them.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidManifest is wrapped by every validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is the root of a patch manifest file.
type Manifest struct {
	// Target is the file to patch. A target given on the command line wins.
	Target string `yaml:"target,omitempty"`

	// Patches lists the replacements, in any order.
	Patches []Patch `yaml:"patches"`

	// BaseDir resolves relative Target and payload file paths.
	BaseDir string `yaml:"-"`
}

// Patch is a single replacement. At most one of Hex, Text and File may be
// set; a patch with none of them deletes its range.
type Patch struct {
	// Name is an optional label used in reports.
	Name string `yaml:"name,omitempty"`

	// Offset is the start of the range. When Segment is set it is relative
	// to the segment (or Section) file offset.
	Offset int `yaml:"offset"`

	// Length is the number of original bytes replaced. Zero inserts.
	Length int `yaml:"length"`

	// Hex is the payload as hexadecimal digits; whitespace is ignored.
	Hex string `yaml:"hex,omitempty"`

	// Text is the payload as a literal string.
	Text *string `yaml:"text,omitempty"`

	// File is a path whose contents are the payload.
	File string `yaml:"file,omitempty"`

	// Segment names the Mach-O segment Offset is relative to.
	Segment string `yaml:"segment,omitempty"`

	// Section names a section within Segment that Offset is relative to.
	Section string `yaml:"section,omitempty"`
}

// Label returns the patch name, or a positional description when unnamed.
func (p Patch) Label(idx int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("patch %d", idx)
}

// Relative reports whether the patch offset is relative to a segment.
func (p Patch) Relative() bool {
	return p.Segment != ""
}

// ValidationError describes an invalid manifest field.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "patches[2].hex").
	Field string

	// Message describes the problem.
	Message string

	// FilePath is the manifest file, if known.
	FilePath string
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// Unwrap returns ErrInvalidManifest.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidManifest
}

// Load reads and validates a manifest file. Relative paths inside it are
// resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := Parse(content)
	if err != nil {
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			valErr.FilePath = path
		}
		return nil, err
	}

	m.BaseDir = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates a manifest from YAML bytes.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %w", ErrInvalidManifest, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks every patch for structural problems. Range bounds are
// checked later against the target's actual size.
func (m *Manifest) Validate() error {
	for idx, patch := range m.Patches {
		if err := validatePatch(patch); err != nil {
			field := fmt.Sprintf("patches[%d]", idx)
			if err.Field != "" {
				field += "." + err.Field
			}
			err.Field = field
			return err
		}
	}
	return nil
}

func validatePatch(p Patch) *ValidationError {
	if p.Offset < 0 {
		return &ValidationError{Field: "offset", Message: "must not be negative"}
	}
	if p.Length < 0 {
		return &ValidationError{Field: "length", Message: "must not be negative"}
	}

	sources := 0
	if p.Hex != "" {
		sources++
		if _, err := decodeHex(p.Hex); err != nil {
			return &ValidationError{Field: "hex", Message: err.Error()}
		}
	}
	if p.Text != nil {
		sources++
	}
	if p.File != "" {
		sources++
	}
	if sources > 1 {
		return &ValidationError{Message: "only one of hex, text or file may be set"}
	}

	if p.Section != "" && p.Segment == "" {
		return &ValidationError{Field: "section", Message: "requires segment"}
	}
	return nil
}

// TargetPath returns the manifest target resolved against BaseDir.
func (m *Manifest) TargetPath() string {
	if m.Target == "" || filepath.IsAbs(m.Target) {
		return m.Target
	}
	return filepath.Join(m.BaseDir, m.Target)
}

// NeedsResolver reports whether any patch is segment-relative.
func (m *Manifest) NeedsResolver() bool {
	for _, patch := range m.Patches {
		if patch.Relative() {
			return true
		}
	}
	return false
}
