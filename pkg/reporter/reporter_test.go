package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/binsplice/internal/testutil/machotest"
	"github.com/yaklabco/binsplice/pkg/contentkind"
	"github.com/yaklabco/binsplice/pkg/macho"
	"github.com/yaklabco/binsplice/pkg/patcher"
	"github.com/yaklabco/binsplice/pkg/prelink"
	"github.com/yaklabco/binsplice/pkg/reporter"
	"github.com/yaklabco/binsplice/pkg/splice"
)

func sampleResult() *patcher.Result {
	return &patcher.Result{
		Path:         "kernel.bin",
		Output:       "kernel.bin",
		OriginalSize: 8,
		FinalSize:    9,
		Kind:         contentkind.Kind{Binary: true, MIME: "application/octet-stream"},
		Steps: []patcher.Change{{
			Step: splice.Step{
				Replacement: splice.Replacement{
					Range: splice.Range{Offset: 6, Length: 2},
					Data:  []byte{0xff, 0xfe, 0xfd},
				},
				Index:           0,
				EffectiveOffset: 6,
			},
			Label:    "nop",
			Original: []byte{0x06, 0x07},
		}},
		Written:       true,
		BackupCreated: true,
		BackupPath:    "kernel.bin.binsplice.bak",
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]reporter.Format{
		"":     reporter.FormatText,
		"text": reporter.FormatText,
		"json": reporter.FormatJSON,
	} {
		got, err := reporter.ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, got.IsValid())
	}

	_, err := reporter.ParseFormat("sarif")
	assert.Error(t, err)
	assert.False(t, reporter.Format("sarif").IsValid())
}

func TestNew_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := reporter.New(reporter.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestTextReporter_Report(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{Writer: &buf, Format: reporter.FormatText, Color: "never"})
	require.NoError(t, err)

	require.NoError(t, rep.Report(context.Background(), sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "kernel.bin (binary, 8 bytes)")
	assert.Contains(t, out, "0x00000006 nop [6:8] -> @6, +1")
	assert.Contains(t, out, "- 06 07")
	assert.Contains(t, out, "+ ff fe fd")
	assert.Contains(t, out, "patched: 1 replacement(s) applied, +1 bytes (backup created)")
	assert.Contains(t, out, "size 8 -> 9 bytes")
	assert.Contains(t, out, "backup kernel.bin.binsplice.bak")
}

func TestTextReporter_DryRun(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	result.Written = false
	result.BackupCreated = false
	result.DryRun = true

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never"})
	require.NoError(t, rep.Report(context.Background(), result))

	assert.Contains(t, buf.String(), "dry run: 1 replacement(s) planned, +1 bytes")
	assert.NotContains(t, buf.String(), "backup")
}

func TestJSONReporter_Report(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep, err := reporter.New(reporter.Options{Writer: &buf, Format: reporter.FormatJSON})
	require.NoError(t, err)
	require.NoError(t, rep.Report(context.Background(), sampleResult()))

	var out reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, reporter.SchemaVersion, out.Version)
	assert.Equal(t, 1, out.Delta)
	assert.True(t, out.Written)
	assert.True(t, out.Kind.Binary)
	require.Len(t, out.Replacements, 1)
	assert.Equal(t, "0607", out.Replacements[0].Removed)
	assert.Equal(t, "fffefd", out.Replacements[0].Inserted)
	assert.Equal(t, 6, out.Replacements[0].EffectiveOffset)
}

func TestJSONReporter_NilResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf, Compact: true})
	require.NoError(t, rep.Report(context.Background(), nil))
	assert.JSONEq(t, `{"version":"1.0.0","path":"","output":"","kind":{"binary":false,"mime":""},
		"originalSize":0,"finalSize":0,"delta":0,"dryRun":false,"written":false,"backupCreated":false,
		"replacements":[]}`, buf.String())
}

func TestReportSegments(t *testing.T) {
	t.Parallel()

	img, err := macho.Open(machotest.Image())
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never"})
		require.NoError(t, rep.ReportSegments(context.Background(), "image", img))

		out := buf.String()
		assert.Contains(t, out, "SEGMENT")
		assert.Contains(t, out, "__TEXT")
		assert.Contains(t, out, "__const")
		assert.Contains(t, out, "0x1c0")
		assert.Contains(t, out, "__bss")
		assert.Contains(t, out, "zerofill")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf})
		require.NoError(t, rep.ReportSegments(context.Background(), "image", img))

		var out reporter.JSONSegments
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Segments, 2)
		assert.Equal(t, "__DATA", out.Segments[1].Name)
		assert.Equal(t, uint64(machotest.DataOffset), out.Segments[1].Offset)
		require.Len(t, out.Segments[0].Sections, 2)
		assert.Equal(t, "__const", out.Segments[0].Sections[1].Name)
		require.Len(t, out.Segments[1].Sections, 1)
		assert.True(t, out.Segments[1].Sections[0].ZeroFill)
		assert.False(t, out.Segments[0].Sections[1].ZeroFill)
	})
}

func TestReportKexts(t *testing.T) {
	t.Parallel()

	kernel, err := prelink.Open(machotest.PrelinkedKernel())
	require.NoError(t, err)
	kexts := append(kernel.Kexts, prelink.Kext{Offset: 0x800, Size: 0x10})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never"})
		require.NoError(t, rep.ReportKexts(context.Background(), "kernel", kexts))

		out := buf.String()
		assert.Contains(t, out, "3 kexts")
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "Alpha")
		assert.Contains(t, out, "com.example.beta")
		assert.Contains(t, out, "kext_00000800")
		assert.Contains(t, out, "0x10101")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf})
		require.NoError(t, rep.ReportKexts(context.Background(), "kernel", kexts))

		var out reporter.JSONKexts
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		assert.Equal(t, reporter.SchemaVersion, out.Version)
		require.Len(t, out.Kexts, 3)

		assert.Equal(t, "Alpha", out.Kexts[0].Name)
		require.NotNil(t, out.Kexts[0].Start)
		assert.Equal(t, uint64(machotest.AlphaStart), *out.Kexts[0].Start)
		assert.Equal(t, uint64(machotest.AlphaStop), *out.Kexts[0].Stop)

		assert.Nil(t, out.Kexts[1].Start)
		assert.Empty(t, out.Kexts[2].Name)
		assert.Equal(t, "kext_00000800", out.Kexts[2].File)
	})
}
