package bytesize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"0", 0, false},
		{"1024", 1024, false},
		{"1024B", 1024, false},
		{"1024b", 1024, false},
		{"1Ki", KiB, false},
		{"1KiB", KiB, false},
		{"16Mi", 16 * MiB, false},
		{"16mib", 16 * MiB, false},
		{"1Gi", GiB, false},
		{"1Ti", TiB, false},
		{"1K", KB, false},
		{"100MB", 100 * MB, false},
		{"1.5Ki", 1536, false},
		{"  64 Ki  ", 64 * KiB, false},
		{"", 0, true},
		{"   ", 0, true},
		{"Mi", 0, true},
		{"-1", 0, true},
		{"12Xi", 0, true},
		{"1.2.3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestByteSize_MarshalText(t *testing.T) {
	tests := []struct {
		in   ByteSize
		want string
	}{
		{0, "0"},
		{100, "100"},
		{KiB, "1Ki"},
		{1536, "1536"},
		{16 * MiB, "16Mi"},
		{3 * GiB, "3Gi"},
		{2 * TiB, "2Ti"},
		{MB, "1000000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			text, err := tt.in.MarshalText()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(text))

			var back ByteSize
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, tt.in, back)
		})
	}
}

func TestByteSize_Encodings(t *testing.T) {
	type doc struct {
		Max ByteSize `yaml:"max" json:"max"`
	}

	out, err := yaml.Marshal(doc{Max: 32 * MiB})
	require.NoError(t, err)
	assert.Equal(t, "max: 32Mi\n", string(out))

	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("max: 1Gi\n"), &d))
	assert.Equal(t, GiB, d.Max)

	js, err := json.Marshal(doc{Max: 4 * KiB})
	require.NoError(t, err)
	assert.JSONEq(t, `{"max":"4Ki"}`, string(js))
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "512B", ByteSize(512).String())
	assert.Equal(t, "1.50KiB", ByteSize(1536).String())
	assert.Equal(t, "100.00MiB", (100 * MiB).String())
	assert.Equal(t, "2.00GiB", (2 * GiB).String())
	assert.Equal(t, "1.00TiB", TiB.String())
}

func TestByteSize_Conversions(t *testing.T) {
	b := 5 * MiB
	assert.Equal(t, uint64(5*1024*1024), b.Uint64())
	assert.Equal(t, int64(5*1024*1024), b.Int64())
}
