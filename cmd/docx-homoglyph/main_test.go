package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_homoglyph/pkg/docx"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("docx-homoglyph"),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Bind(&cli.Globals),
		kong.Exit(func(int) { t.Fatalf("意外退出: %v", args) }),
	)
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

func TestCLI_ParseConvert(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.docx")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0644))

	cli, kctx := parse(t, "--seed", "9", "-v", "convert", input, "-o", filepath.Join(dir, "out.docx"))
	assert.Equal(t, "convert <input>", kctx.Command())
	require.NotNil(t, cli.Seed)
	assert.Equal(t, uint64(9), *cli.Seed)
	assert.True(t, cli.Verbose)
	assert.Equal(t, filepath.Join(dir, "out.docx"), cli.Convert.Output)
}

func TestCLI_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	sample := filepath.Join(dir, "sample.docx")
	converted := filepath.Join(dir, "sample-converted.docx")
	missingConfig := filepath.Join(dir, "none.json")

	_, kctx := parse(t, "sample", sample, "Hello", "apple")
	require.NoError(t, kctx.Run())

	_, kctx = parse(t, "--config", missingConfig, "--seed", "1", "convert", sample)
	require.NoError(t, kctx.Run())

	data, err := os.ReadFile(converted)
	require.NoError(t, err)
	text, err := docx.ExtractText(data)
	require.NoError(t, err)
	assert.Equal(t, "Hеllо\nаррlе", text)

	_, kctx = parse(t, "validate", converted)
	assert.NoError(t, kctx.Run())

	_, kctx = parse(t, "inspect", sample, converted)
	assert.NoError(t, kctx.Run())

	_, kctx = parse(t, "extract", converted)
	assert.NoError(t, kctx.Run())
}

func TestCLI_Batch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0755))

	for _, name := range []string{"a.docx", "b.docx"} {
		data, err := docx.NewDocument("text " + name)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(in, name), data, 0644))
	}

	_, kctx := parse(t, "--config", filepath.Join(dir, "none.json"), "batch", in)
	require.NoError(t, kctx.Run())

	assert.FileExists(t, filepath.Join(in+"_converted", "a.docx"))
	assert.FileExists(t, filepath.Join(in+"_converted", "b.docx"))
}
