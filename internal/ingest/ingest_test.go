package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

const sampleCSV = `source,id,latitude,longitude,timestamp,title,url
flickr,53001,59.9343,30.3351,2025-08-27T12:00:00Z,old town,https://example.com/53001
wikipedia,42,48.85,2.29,,Eiffel Tower,
myspace,1,0,0,,bad source,
flickr,53002,95.5,30.0,,bad latitude,
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile_CSV(t *testing.T) {
	path := writeFile(t, "records.csv", sampleCSV)

	result, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, 2, result.Rejected)

	first := result.Records[0]
	assert.Equal(t, model.SourceFlickr, first.Source)
	assert.Equal(t, "53001", first.ID)
	require.NotNil(t, first.Timestamp)
	assert.Equal(t, 2025, first.Timestamp.Year())

	assert.Nil(t, result.Records[1].Timestamp)
}

func TestReadFile_JSON(t *testing.T) {
	content := `[
		{"source":"flickr","id":"53001","latitude":59.9343,"longitude":30.3351,"timestamp":"2025-08-27T12:00:00Z","title":"old town"},
		{"source":"vk","id":"9","latitude":44.5,"longitude":34.1}
	]`
	path := writeFile(t, "records.json", content)

	result, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, model.SourceVK, result.Records[1].Source)
}

func TestReadFile_ZIPWrapped(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "records.zip")

	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	entry, err := zw.Create("records.csv")
	require.NoError(t, err)
	_, err = entry.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	result, err := ReadFile(context.Background(), zipPath)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "records.parquet", "whatever")

	_, err := ReadFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
