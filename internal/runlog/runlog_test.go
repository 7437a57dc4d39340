// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2md/pkg/types"
)

func sampleRecord(source string, ts time.Time) types.RunRecord {
	return types.RunRecord{
		Timestamp:  ts,
		SourceFile: source,
		Params: []types.Param{
			{Key: "Device", Value: "cuda"},
			{Key: "Method", Value: "auto"},
		},
		OutputPath: "/data/output",
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)
	got := Format(sampleRecord("paper.pdf", ts))

	want := "Time: 2026-03-01 14:05:09\n" +
		"Processed Files:\n" +
		"- paper.pdf\n" +
		"Conversion Parameters:\n" +
		"- Device: cuda\n" +
		"- Method: auto\n" +
		"Output Path: /data/output\n"
	assert.Equal(t, want, got)
}

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Changing Description.txt")
	ts := time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC)

	require.NoError(t, Append(path, sampleRecord("a.pdf", ts)))
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Format(sampleRecord("a.pdf", ts)), string(first))
	assert.NotContains(t, string(first), Delimiter)

	require.NoError(t, Append(path, sampleRecord("b.pdf", ts.Add(time.Minute))))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, string(first)), "first block must be preserved")
	assert.Equal(t, 1, strings.Count(content, "\n"+Delimiter+"\n"))

	blocks := Split(content)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "- a.pdf")
	assert.Contains(t, blocks[1], "- b.pdf")
}

func TestAppend_ManyBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.txt")
	ts := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	const n = 25
	for i := 0; i < n; i++ {
		require.NoError(t, Append(path, sampleRecord("doc.pdf", ts.Add(time.Duration(i)*time.Second))))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, utf8.Valid(data))
	assert.Len(t, Split(string(data)), n)
	assert.Equal(t, n-1, strings.Count(string(data), Delimiter))
}

func TestAppend_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "log.txt")
	err := Append(path, sampleRecord("a.pdf", time.Now()))
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	ctx := context.Background()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err = idx.Record(ctx, Entry{
		RunRecord:      sampleRecord("a.pdf", ts),
		Status:         types.ConversionDone,
		ArchiveMembers: 3,
	})
	require.NoError(t, err)
	id, err := idx.Record(ctx, Entry{
		RunRecord: sampleRecord("b.pdf", ts.Add(time.Hour)),
		Status:    types.ConversionFailed,
		Error:     "external tool failed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	all, err := idx.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b.pdf", all[0].SourceFile, "newest first")
	assert.Equal(t, types.ConversionFailed, all[0].Status)
	assert.Equal(t, "external tool failed", all[0].Error)
	assert.True(t, all[1].Timestamp.Equal(ts))
	assert.Equal(t, 3, all[1].ArchiveMembers)
	assert.Equal(t, sampleRecord("a.pdf", ts).Params, all[1].Params)

	onlyA, err := idx.Recent(ctx, "a.pdf", 10)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "/data/output", onlyA[0].OutputPath)

	limited, err := idx.Recent(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
