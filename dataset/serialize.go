package dataset

import (
	"bufio"
	"encoding/gob"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/gomlx/labeledtext/internal/files"
	"github.com/pkg/errors"
)

// FileFormat identifies files written by Save.
const FileFormat = "labeledtext.Dataset"

// FileFormatVersion of the files written by Save. Load accepts only this version.
const FileFormatVersion = 1

// DefaultFileCreationPerm is used by Save when creating the file.
var DefaultFileCreationPerm = os.FileMode(0644)

// fileHeader is the first gob value of a saved Dataset. It describes the shapes of the tensors that follow.
type fileHeader struct {
	Format      string
	Version     int
	NumExamples int
	MaxLength   int
	Fields      []string
}

// fileFields lists the tensors following the header, in order.
var fileFields = []string{"input_ids", "attention_mask", "sentiment", "emotion"}

// Save writes ds to filePath, creating or overwriting it. The file is replaced atomically, so a
// failed Save leaves any previous file intact.
//
// The format is a snappy-framed stream of gob values: a header with the format name, version and shapes,
// followed by the input_ids, attention_mask, sentiment and emotion tensors. Read it back with Load.
func Save(ds *Dataset, filePath string) error {
	return files.WriteAtomic(filePath, DefaultFileCreationPerm, func(w io.Writer) error {
		return Write(ds, w)
	})
}

// Write serializes ds to w in the format described in Save.
func Write(ds *Dataset, w io.Writer) error {
	sw := snappy.NewBufferedWriter(w)
	enc := gob.NewEncoder(sw)
	header := fileHeader{
		Format:      FileFormat,
		Version:     FileFormatVersion,
		NumExamples: ds.numExamples,
		MaxLength:   ds.maxLength,
		Fields:      fileFields,
	}
	for _, value := range []any{header, ds.inputIDs, ds.attentionMask, ds.sentiments, ds.emotions} {
		if err := enc.Encode(value); err != nil {
			return errors.Wrap(err, "failed to encode dataset")
		}
	}
	if err := sw.Close(); err != nil {
		return errors.Wrap(err, "failed to flush dataset")
	}
	return nil
}

// Load reads a Dataset written by Save.
//
// It returns ErrCorrupt if the file is not a dataset of a known version, and ErrShapeMismatch if its tensors
// don't have the shapes announced in its header.
func Load(filePath string) (*Dataset, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %q", filePath)
	}
	defer func() { _ = f.Close() }()
	ds, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, errors.WithMessagef(err, "while loading dataset %q", filePath)
	}
	return ds, nil
}

// Read deserializes a Dataset from r, see Load.
func Read(r io.Reader) (*Dataset, error) {
	dec := gob.NewDecoder(snappy.NewReader(r))
	var header fileHeader
	if err := dec.Decode(&header); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "can't read header: %v", err)
	}
	if header.Format != FileFormat {
		return nil, errors.Wrapf(ErrCorrupt, "unknown format %q", header.Format)
	}
	if header.Version != FileFormatVersion {
		return nil, errors.Wrapf(ErrCorrupt, "unsupported version %d of %s, only version %d is supported",
			header.Version, FileFormat, FileFormatVersion)
	}
	if header.NumExamples < 0 || header.MaxLength < 0 {
		return nil, errors.Wrapf(ErrCorrupt, "invalid shape [%d, %d]", header.NumExamples, header.MaxLength)
	}

	ds := &Dataset{numExamples: header.NumExamples, maxLength: header.MaxLength}
	tensors := []*[]int64{&ds.inputIDs, &ds.attentionMask, &ds.sentiments, &ds.emotions}
	for ii, tensor := range tensors {
		if err := dec.Decode(tensor); err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "can't read %q: %v", fileFields[ii], err)
		}
		if *tensor == nil {
			// gob decodes empty slices as nil.
			*tensor = []int64{}
		}
	}
	n, l := header.NumExamples, header.MaxLength
	for ii, want := range []int{n * l, n * l, n, n} {
		if got := len(*tensors[ii]); got != want {
			return nil, errors.Wrapf(ErrShapeMismatch, "%q has %d values, header announces %d", fileFields[ii], got, want)
		}
	}
	return ds, nil
}
