package dataset

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	for _, ds := range []*Dataset{sequentialDataset(t, 50, 16), sequentialDataset(t, 0, 0), sequentialDataset(t, 3, 0)} {
		filePath := filepath.Join(dir, "dataset.bin")
		require.NoError(t, Save(ds, filePath))
		loaded, err := Load(filePath)
		require.NoError(t, err)
		require.Equal(t, ds.Len(), loaded.Len())
		require.Equal(t, ds.MaxLength(), loaded.MaxLength())
		for ii := range ds.Len() {
			want, err := ds.At(ii)
			require.NoError(t, err)
			got, err := loaded.At(ii)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
		assert.True(t, ds.Equal(loaded))
		assert.NoFileExists(t, filePath+".tmp")
	}
}

func TestSaveLoadZeroLength(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "dataset.bin")
	require.NoError(t, Save(sequentialDataset(t, 3, 0), filePath))
	loaded, err := Load(filePath)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Len())
	item, err := loaded.At(2)
	require.NoError(t, err)
	assert.Equal(t, Item{InputIDs: []int64{}, AttentionMask: []int64{}, Sentiment: 2, Emotion: 2}, item)
}

func TestSaveErrors(t *testing.T) {
	ds := sequentialDataset(t, 2, 2)
	err := Save(ds, filepath.Join(t.TempDir(), "no", "such", "dir", "dataset.bin"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Directory in place of the file.
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dataset.bin"), 0755))
	require.Error(t, Save(ds, filepath.Join(dir, "dataset.bin")))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "garbage.bin", "this is not a dataset"))
	assert.ErrorIs(t, err, ErrCorrupt)

	encode := func(values ...any) []byte {
		var buf bytes.Buffer
		sw := snappy.NewBufferedWriter(&buf)
		enc := gob.NewEncoder(sw)
		for _, v := range values {
			require.NoError(t, enc.Encode(v))
		}
		require.NoError(t, sw.Close())
		return buf.Bytes()
	}

	_, err = Read(bytes.NewReader(encode(fileHeader{Format: "other", Version: FileFormatVersion})))
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = Read(bytes.NewReader(encode(fileHeader{Format: FileFormat, Version: FileFormatVersion + 1})))
	assert.ErrorIs(t, err, ErrCorrupt)

	// Truncated: header only.
	header := fileHeader{Format: FileFormat, Version: FileFormatVersion, NumExamples: 1, MaxLength: 2, Fields: fileFields}
	_, err = Read(bytes.NewReader(encode(header)))
	assert.ErrorIs(t, err, ErrCorrupt)

	// Shapes not matching the header.
	_, err = Read(bytes.NewReader(encode(header, []int64{1, 2}, []int64{1, 1}, []int64{0}, []int64{0, 1})))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	ds, err := Read(bytes.NewReader(encode(header, []int64{1, 2}, []int64{1, 1}, []int64{0}, []int64{1})))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}
