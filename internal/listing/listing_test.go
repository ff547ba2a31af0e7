package listing

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"regdesk/internal/client/api"
)

var users = []api.User{
	{Username: "first", Email: "a@b.com", Address: "x", Skills: []string{"go", "sql"}, RegisteredAt: "2024-01-01T00:00:00Z"},
	{Username: "second", Email: "c@d.com", Phone: "0123456789", DateOfBirth: "1990-02-03", Address: "y", Skills: []string{"rust"}, RegisteredAt: "2024-01-02T00:00:00Z"},
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"table": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.Error(t, err)
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, users, FormatJSON))

	var got []api.User
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, users, got)

	buf.Reset()
	require.NoError(t, Render(&buf, nil, FormatJSON))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, users, FormatYAML))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0]["username"])
	assert.NotContains(t, got[0], "phone")
	assert.Equal(t, "1990-02-03", got[1]["dob"])
	assert.Equal(t, "2024-01-02T00:00:00Z", got[1]["registeredAt"])
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, users, FormatTable))
	out := buf.String()

	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "go, sql")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("first")), bytes.Index(buf.Bytes(), []byte("second")), "insertion order")

	buf.Reset()
	require.NoError(t, Render(&buf, nil, FormatTable))
	assert.Contains(t, buf.String(), EmptyMessage)
}
