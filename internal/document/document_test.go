package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestFromRow(t *testing.T) {
	header := []string{"name", "state", "zip"}

	tests := []struct {
		name     string
		row      []string
		wantKeys []string
		want     map[string]any
	}{
		{
			name:     "matching width",
			row:      []string{"Alice", "NY", "10001"},
			wantKeys: []string{"name", "state", "zip"},
			want:     map[string]any{"name": "Alice", "state": "NY", "zip": "10001"},
		},
		{
			name:     "short row pads with null",
			row:      []string{"Bob"},
			wantKeys: []string{"name", "state", "zip"},
			want:     map[string]any{"name": "Bob", "state": nil, "zip": nil},
		},
		{
			name:     "long row collects overflow",
			row:      []string{"Carol", "PA", "19104", "x", "y"},
			wantKeys: []string{"name", "state", "zip", DefaultOverflowKey},
			want: map[string]any{
				"name": "Carol", "state": "PA", "zip": "19104",
				DefaultOverflowKey: []string{"x", "y"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromRow(header, tt.row, DefaultOverflowKey)
			assert.Equal(t, tt.wantKeys, r.Keys())
			for k, want := range tt.want {
				got, ok := r.Get(k)
				require.True(t, ok, "missing key %q", k)
				assert.Equal(t, want, got, "key %q", k)
			}
		})
	}
}

func TestFromRow_DuplicateHeaderLastWins(t *testing.T) {
	r := FromRow([]string{"a", "b", "a"}, []string{"1", "2", "3"}, DefaultOverflowKey)

	assert.Equal(t, []string{"a", "b"}, r.Keys())
	v, _ := r.Get("a")
	assert.Equal(t, "3", v)
}

func TestEncode_Layout(t *testing.T) {
	records := []*Record{
		FromRow([]string{"name", "state", "zip"}, []string{"Alice", "NY", "10001"}, DefaultOverflowKey),
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records))

	want := "[\n" +
		"    {\n" +
		"        \"name\": \"Alice\",\n" +
		"        \"state\": \"NY\",\n" +
		"        \"zip\": \"10001\"\n" +
		"    }\n" +
		"]"
	assert.Equal(t, want, buf.String())
}

func TestEncode_Empty(t *testing.T) {
	for _, records := range [][]*Record{nil, {}} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, records))
		assert.Equal(t, "[]", buf.String())
	}
}

func TestEncode_KeepsHeaderOrder(t *testing.T) {
	header := []string{"zeta", "alpha", "mid"}
	records := []*Record{FromRow(header, []string{"1", "2", "3"}, DefaultOverflowKey)}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records))

	var keys []string
	gjson.Get(buf.String(), "0").ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	assert.Equal(t, header, keys)
}

func TestEncode_Values(t *testing.T) {
	header := []string{"id", "note", "missing"}
	records := []*Record{
		FromRow(header, []string{"042", "<b>&\"q\"", "", "over"}, "rest"),
		FromRow(header, []string{"7"}, "rest"),
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, records))
	out := buf.String()

	require.True(t, gjson.Valid(out))
	assert.Equal(t, gjson.String, gjson.Get(out, "0.id").Type)
	assert.Equal(t, "042", gjson.Get(out, "0.id").String())
	assert.Equal(t, `<b>&"q"`, gjson.Get(out, "0.note").String())
	assert.Contains(t, out, `"<b>&\"q\""`)
	assert.Equal(t, gjson.String, gjson.Get(out, "0.missing").Type)
	rest := gjson.Get(out, "0.rest")
	require.True(t, rest.IsArray())
	assert.Equal(t, "over", rest.Get("0").String())
	assert.Equal(t, gjson.Null, gjson.Get(out, "1.note").Type)
	assert.Equal(t, int64(2), gjson.Get(out, "#").Int())
}
