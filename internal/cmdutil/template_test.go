package cmdutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFuncMap(t *testing.T) {
	fm := DefaultFuncMap()

	t.Run("json", func(t *testing.T) {
		fn := fm["json"].(func(any) (string, error))
		got, err := fn(map[string]string{"service": "web"})
		require.NoError(t, err)
		assert.Equal(t, `{"service":"web"}`, got)
	})

	t.Run("json_error", func(t *testing.T) {
		fn := fm["json"].(func(any) (string, error))
		// Channels cannot be marshaled to JSON.
		_, err := fn(make(chan int))
		assert.Error(t, err)
	})

	t.Run("upper", func(t *testing.T) {
		fn := fm["upper"].(func(string) string)
		assert.Equal(t, "PRIMARY", fn("primary"))
	})

	t.Run("lower", func(t *testing.T) {
		fn := fm["lower"].(func(string) string)
		assert.Equal(t, "active", fn("ACTIVE"))
	})

	t.Run("title", func(t *testing.T) {
		fn := fm["title"].(func(string) string)
		assert.Equal(t, "Succeeded", fn("succeeded"))
		assert.Equal(t, "", fn(""))
	})

	t.Run("truncate_longer", func(t *testing.T) {
		fn := fm["truncate"].(func(string, int) string)
		assert.Equal(t, "sha25...", fn("sha256:abcdef0123", 8))
	})

	t.Run("truncate_shorter", func(t *testing.T) {
		fn := fm["truncate"].(func(string, int) string)
		assert.Equal(t, "web", fn("web", 8))
	})
}

func TestExecuteTemplate_Plain(t *testing.T) {
	type row struct {
		Service string
		Status  string
	}
	items := ToAny([]row{
		{Service: "web", Status: "active"},
		{Service: "worker", Status: "draining"},
	})

	f, err := ParseFormat("{{.Service}}: {{.Status}}")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExecuteTemplate(&buf, f, items))

	assert.Equal(t, "web: active\nworker: draining\n", buf.String())
}

func TestExecuteTemplate_Table(t *testing.T) {
	type row struct {
		Service string
		Status  string
	}
	items := ToAny([]row{
		{Service: "web", Status: "active"},
		{Service: "batch-worker", Status: "draining"},
	})

	f, err := ParseFormat("table {{.Service}}\t{{.Status}}")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExecuteTemplate(&buf, f, items))

	out := buf.String()
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "batch-worker")
	// tabwriter aligns the second column
	assert.Contains(t, out, "  ")
}

func TestExecuteTemplate_InvalidTemplate(t *testing.T) {
	f, err := ParseFormat("{{.Service")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = ExecuteTemplate(&buf, f, ToAny([]string{"x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid template")
}

func TestExecuteTemplate_MissingField(t *testing.T) {
	type row struct{ Service string }

	f, err := ParseFormat("{{.Nope}}")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = ExecuteTemplate(&buf, f, ToAny([]row{{Service: "web"}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template execution failed")
}
