package pretty_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/binsplice/internal/ui/pretty"
)

func TestNewStyles_ColorDisabled(t *testing.T) {
	styles := pretty.NewStyles(false)
	require.NotNil(t, styles)

	assert.Equal(t, "test", styles.Bold.Render("test"))
	assert.Equal(t, "test", styles.Removed.Render("test"))
	assert.Equal(t, "test", styles.Inserted.Render("test"))
}

func TestNewStyles_ColorEnabled(t *testing.T) {
	styles := pretty.NewStyles(true)
	require.NotNil(t, styles)

	// Lipgloss may strip ANSI codes off a TTY; only check text survives.
	assert.Contains(t, styles.Error.Render("x"), "x")
	assert.Contains(t, styles.Offset.Render("x"), "x")
}

func TestIsColorEnabled(t *testing.T) {
	var buf bytes.Buffer

	assert.True(t, pretty.IsColorEnabled("always", &buf))
	assert.False(t, pretty.IsColorEnabled("never", os.Stdout))
	assert.False(t, pretty.IsColorEnabled("auto", &buf), "buffers are not terminals")
	assert.False(t, pretty.IsColorEnabled("", &buf))
}

func TestIsColorEnabled_NoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, pretty.IsColorEnabled("auto", os.Stdout))
}

func TestHexPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		data  []byte
		limit int
		want  string
	}{
		{"empty", nil, 4, "(none)"},
		{"short", []byte{0x00, 0xab, 0x1f}, 4, "00 ab 1f"},
		{"truncated", []byte{1, 2, 3, 4, 5, 6}, 4, "01 02 03 04 ... (+2 bytes)"},
		{"default limit", make([]byte, 17), 0, strings.Repeat("00 ", 15) + "00 ... (+1 bytes)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, pretty.HexPreview(tt.data, tt.limit))
		})
	}
}

func TestFormatOffsetAndPlural(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0x000001c0", pretty.FormatOffset(0x1c0))
	assert.Equal(t, "byte", pretty.Plural(1, "byte"))
	assert.Equal(t, "bytes", pretty.Plural(0, "byte"))
}

func TestTable(t *testing.T) {
	t.Parallel()

	table := pretty.NewTable(pretty.NewStyles(false), "NAME", "OFFSET")
	table.AddRow("__TEXT", "0x0")
	table.AddRow("__LINKEDIT")

	lines := strings.Split(strings.TrimRight(table.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "NAME        OFFSET", lines[0])
	assert.Equal(t, strings.Repeat("-", 18), lines[1])
	assert.Equal(t, "__TEXT      0x0", lines[2])
	assert.Equal(t, "__LINKEDIT  ", lines[3])
}
