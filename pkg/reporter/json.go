package reporter

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/yaklabco/binsplice/pkg/contentkind"
	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/patcher"
	"github.com/yaklabco/binsplice/pkg/prelink"
)

// SchemaVersion is the version of the JSON output schema.
const SchemaVersion = "1.0.0"

// JSONOutput is the top-level JSON structure for a patch run.
type JSONOutput struct {
	Version       string            `json:"version"`
	Path          string            `json:"path"`
	Output        string            `json:"output"`
	Kind          contentkind.Kind  `json:"kind"`
	OriginalSize  int               `json:"originalSize"`
	FinalSize     int               `json:"finalSize"`
	Delta         int               `json:"delta"`
	DryRun        bool              `json:"dryRun"`
	Written       bool              `json:"written"`
	BackupCreated bool              `json:"backupCreated"`
	BackupPath    string            `json:"backupPath,omitempty"`
	Replacements  []JSONReplacement `json:"replacements"`
}

// JSONReplacement is one applied or planned replacement.
type JSONReplacement struct {
	Index           int    `json:"index"`
	Label           string `json:"label"`
	Offset          int    `json:"offset"`
	Length          int    `json:"length"`
	EffectiveOffset int    `json:"effectiveOffset"`
	Delta           int    `json:"delta"`
	Removed         string `json:"removed"`
	Inserted        string `json:"inserted"`
}

// JSONSegments is the top-level JSON structure for a segment listing.
type JSONSegments struct {
	Version  string        `json:"version"`
	Path     string        `json:"path"`
	CPU      string        `json:"cpu"`
	Is64     bool          `json:"is64"`
	Segments []JSONSegment `json:"segments"`
}

// JSONSegment describes a segment and its sections.
type JSONSegment struct {
	Name     string        `json:"name"`
	Offset   uint64        `json:"offset"`
	Size     uint64        `json:"size"`
	Addr     uint64        `json:"addr"`
	Sections []JSONSection `json:"sections"`
}

// JSONSection describes a section.
type JSONSection struct {
	Name     string `json:"name"`
	Offset   uint64 `json:"offset"`
	Size     uint64 `json:"size"`
	Addr     uint64 `json:"addr"`
	ZeroFill bool   `json:"zeroFill,omitempty"`
}

// JSONKexts is the top-level JSON structure for a kext listing.
type JSONKexts struct {
	Version string     `json:"version"`
	Path    string     `json:"path"`
	Kexts   []JSONKext `json:"kexts"`
}

// JSONKext describes one embedded kext.
type JSONKext struct {
	Name     string  `json:"name,omitempty"`
	BundleID string  `json:"bundleId,omitempty"`
	Version  string  `json:"version,omitempty"`
	File     string  `json:"file"`
	Offset   int     `json:"offset"`
	Size     int     `json:"size"`
	Addr     uint64  `json:"addr"`
	Start    *uint64 `json:"start,omitempty"`
	Stop     *uint64 `json:"stop,omitempty"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *patcher.Result) error {
	return r.encode(buildOutput(result))
}

// ReportSegments implements Reporter.
func (r *JSONReporter) ReportSegments(_ context.Context, path string, img *macho.Image) error {
	out := JSONSegments{
		Version:  SchemaVersion,
		Path:     path,
		CPU:      img.CPU,
		Is64:     img.Is64,
		Segments: make([]JSONSegment, 0, len(img.Segments())),
	}
	for _, seg := range img.Segments() {
		js := JSONSegment{
			Name:     seg.Name,
			Offset:   seg.Offset,
			Size:     seg.Filesize,
			Addr:     seg.Addr,
			Sections: make([]JSONSection, 0, len(seg.Sections)),
		}
		for _, sect := range seg.Sections {
			js.Sections = append(js.Sections, JSONSection{
				Name: sect.Name, Offset: sect.Offset, Size: sect.Size, Addr: sect.Addr,
				ZeroFill: sect.ZeroFill(),
			})
		}
		out.Segments = append(out.Segments, js)
	}
	return r.encode(out)
}

// ReportKexts implements Reporter.
func (r *JSONReporter) ReportKexts(_ context.Context, path string, kexts []prelink.Kext) error {
	out := JSONKexts{Version: SchemaVersion, Path: path, Kexts: make([]JSONKext, 0, len(kexts))}
	for _, kext := range kexts {
		jk := JSONKext{
			Name:     kext.Name,
			BundleID: kext.BundleID,
			Version:  kext.Version,
			File:     kext.FileName(),
			Offset:   kext.Offset,
			Size:     kext.Size,
			Addr:     kext.Addr,
		}
		if kext.Entry != nil {
			jk.Start = &kext.Entry.Start
			jk.Stop = &kext.Entry.Stop
		}
		out.Kexts = append(out.Kexts, jk)
	}
	return r.encode(out)
}

func (r *JSONReporter) encode(v any) (err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func buildOutput(result *patcher.Result) *JSONOutput {
	out := &JSONOutput{Version: SchemaVersion, Replacements: make([]JSONReplacement, 0)}
	if result == nil {
		return out
	}

	out.Path = result.Path
	out.Output = result.Output
	out.Kind = result.Kind
	out.OriginalSize = result.OriginalSize
	out.FinalSize = result.FinalSize
	out.Delta = result.Delta()
	out.DryRun = result.DryRun
	out.Written = result.Written
	out.BackupCreated = result.BackupCreated
	out.BackupPath = result.BackupPath

	for _, change := range result.Steps {
		out.Replacements = append(out.Replacements, JSONReplacement{
			Index:           change.Index,
			Label:           change.Label,
			Offset:          change.Offset,
			Length:          change.Length,
			EffectiveOffset: change.EffectiveOffset,
			Delta:           change.Delta(),
			Removed:         hex.EncodeToString(change.Original),
			Inserted:        hex.EncodeToString(change.Data),
		})
	}
	return out
}
