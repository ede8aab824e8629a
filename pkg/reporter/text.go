package reporter

import (
	"bufio"
	"context"
	"fmt"
	"strconv"

	"github.com/yaklabco/binsplice/internal/ui/pretty"
	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/patcher"
	"github.com/yaklabco/binsplice/pkg/prelink"
)

// TextReporter formats results as styled terminal output.
type TextReporter struct {
	opts   Options
	styles *pretty.Styles
	bw     *bufio.Writer
}

// NewTextReporter creates a new text reporter.
func NewTextReporter(opts Options) *TextReporter {
	colorEnabled := pretty.IsColorEnabled(opts.Color, opts.Writer)
	return &TextReporter{
		opts:   opts,
		styles: pretty.NewStyles(colorEnabled),
		bw:     bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *TextReporter) Report(_ context.Context, result *patcher.Result) (err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	if result == nil {
		return nil
	}

	fmt.Fprintf(r.bw, "%s %s\n",
		r.styles.FilePath.Render(result.Path),
		r.styles.Dim.Render("("+result.Kind.String()+", "+strconv.Itoa(result.OriginalSize)+" bytes)"))

	for _, change := range result.Steps {
		r.writeChange(change)
	}

	r.writeSummary(result)
	return nil
}

func (r *TextReporter) writeChange(change patcher.Change) {
	fmt.Fprintf(r.bw, "  %s %s %s\n",
		r.styles.Offset.Render(pretty.FormatOffset(change.Offset)),
		r.styles.Label.Render(change.Label),
		r.styles.Dim.Render(fmt.Sprintf("%s -> @%d, %+d", change.Range, change.EffectiveOffset, change.Delta())))
	fmt.Fprintf(r.bw, "    %s %s\n",
		r.styles.Removed.Render("-"),
		r.styles.Removed.Render(pretty.HexPreview(change.Original, r.opts.PreviewBytes)))
	fmt.Fprintf(r.bw, "    %s %s\n",
		r.styles.Inserted.Render("+"),
		r.styles.Inserted.Render(pretty.HexPreview(change.Data, r.opts.PreviewBytes)))
}

func (r *TextReporter) writeSummary(result *patcher.Result) {
	size := fmt.Sprintf("%d -> %d bytes", result.OriginalSize, result.FinalSize)

	switch {
	case result.DryRun:
		fmt.Fprintf(r.bw, "%s %s\n", r.styles.Warning.Render("dry run:"), result.Summary())
	case result.Written:
		fmt.Fprintf(r.bw, "%s %s\n", r.styles.Success.Render("patched:"), result.Summary())
	default:
		fmt.Fprintln(r.bw, r.styles.Dim.Render(result.Summary()))
	}

	fmt.Fprintf(r.bw, "  %s %s\n", r.styles.SummaryTitle.Render("size"), size)
	if result.Written && !result.InPlace() {
		fmt.Fprintf(r.bw, "  %s %s\n", r.styles.SummaryTitle.Render("output"), result.Output)
	}
	if result.BackupCreated {
		fmt.Fprintf(r.bw, "  %s %s\n", r.styles.SummaryTitle.Render("backup"), result.BackupPath)
	}
}

// ReportSegments implements Reporter.
func (r *TextReporter) ReportSegments(_ context.Context, path string, img *macho.Image) (err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	arch := img.CPU
	if img.Is64 {
		arch += ", 64-bit"
	}
	fmt.Fprintf(r.bw, "%s %s\n", r.styles.FilePath.Render(path), r.styles.Dim.Render("("+arch+")"))

	table := pretty.NewTable(r.styles, "SEGMENT", "SECTION", "FILEOFF", "SIZE", "VMADDR")
	for _, seg := range img.Segments() {
		table.AddRow(seg.Name, "", hexU(seg.Offset), hexU(seg.Filesize), hexU(seg.Addr))
		for _, sect := range seg.Sections {
			fileOff := hexU(sect.Offset)
			if sect.ZeroFill() {
				fileOff = "zerofill"
			}
			table.AddRow("", sect.Name, fileOff, hexU(sect.Size), hexU(sect.Addr))
		}
	}
	fmt.Fprint(r.bw, table.Render())
	return nil
}

// ReportKexts implements Reporter.
func (r *TextReporter) ReportKexts(_ context.Context, path string, kexts []prelink.Kext) (err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	fmt.Fprintf(r.bw, "%s %s\n", r.styles.FilePath.Render(path),
		r.styles.Dim.Render("("+strconv.Itoa(len(kexts))+" "+pretty.Plural(len(kexts), "kext")+")"))

	table := pretty.NewTable(r.styles, "NAME", "BUNDLE", "FILEOFF", "SIZE", "ADDR", "START")
	for _, kext := range kexts {
		bundle, start := "-", "-"
		if kext.BundleID != "" {
			bundle = kext.BundleID
		}
		if kext.Entry != nil {
			start = hexU(kext.Entry.Start)
		}
		table.AddRow(kext.FileName(), bundle, hexU(uint64(kext.Offset)), hexU(uint64(kext.Size)), hexU(kext.Addr), start)
	}
	fmt.Fprint(r.bw, table.Render())
	return nil
}

func hexU(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
