package dataset

import "github.com/pkg/errors"

// Errors returned by the package, test for them with errors.Is.
//
// A missing input file is reported with the underlying fs.ErrNotExist, and failing to write an output file
// with the underlying OS error: test for them with errors.Is(err, fs.ErrNotExist), errors.As(err, &pathErr), etc.
var (
	// ErrParse is returned when the input file is not a valid CSV, or a label is not an integer.
	ErrParse = errors.New("malformed input file")

	// ErrSchema is returned when a required column is missing from the input file.
	ErrSchema = errors.New("missing required column")

	// ErrShapeMismatch is returned when the parallel sequences packed into a Dataset don't have matching lengths.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidMaxLength is returned for negative sequence lengths.
	ErrInvalidMaxLength = errors.New("invalid max length")

	// ErrCorrupt is returned by Load when the file is not a serialized Dataset.
	ErrCorrupt = errors.New("corrupt dataset file")
)
