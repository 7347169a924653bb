package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type layers []Section

func (l layers) Sections() []Section { return l }

func TestPrinter_Print(t *testing.T) {
	fields := NewTableData("Field", "Value")
	fields.AddRow("command", "SESSION_SETUP")
	fields.AddRow("credit_charge", "1")

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(fields))
	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "SESSION_SETUP")
	assert.NotContains(t, out, "|")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print(layers{
		{Title: "[0] smb2", Table: fields},
		{Title: "[1] gssapi"},
	}))
	out = buf.String()
	assert.True(t, strings.HasPrefix(out, "[0] smb2\n"))
	assert.Contains(t, out, "\n\n[1] gssapi\n")

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatJSON, false).Print(map[string]int{"layers": 2}))
	assert.JSONEq(t, `{"layers":2}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML, false).Print(map[string][]string{"names": {"a", "b"}}))
	assert.Equal(t, "names:\n  - a\n  - b\n", buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatTable, false).Print([]int{1}))
	assert.JSONEq(t, "[1]", buf.String(), "non-renderers fall back to JSON")

	assert.Error(t, NewPrinter(&buf, Format("csv"), false).Print(1))
}

func TestPrinter_Status(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatTable, false).Success("written")
	assert.Equal(t, "written\n", buf.String())

	buf.Reset()
	NewPrinter(&buf, FormatTable, true).Error("failed")
	assert.Equal(t, "\033[31mfailed\033[0m\n", buf.String())
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{{"Version", "1.0.0"}, {"Commit", "abc123"}}))
	assert.Contains(t, buf.String(), "Version")
	assert.Contains(t, buf.String(), "abc123")
}
