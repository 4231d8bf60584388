package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

// Column names required in the input file.
const (
	ColumnText      = "text"
	ColumnSentiment = "sentiment"
	ColumnEmotion   = "emotion"
)

// RequiredColumns lists the columns the input file must have, in any order.
var RequiredColumns = []string{ColumnText, ColumnSentiment, ColumnEmotion}

// Label is a pre-encoded categorical label id, read from a CSV cell.
type Label int64

// UnmarshalCSV implements gocsv.TypeUnmarshaller. Blank cells are rejected.
func (l *Label) UnmarshalCSV(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.New("missing label")
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid label %q", value)
	}
	*l = Label(v)
	return nil
}

// Row is one record of the input file.
type Row struct {
	Text      string `csv:"text"`
	Sentiment Label  `csv:"sentiment"`
	Emotion   Label  `csv:"emotion"`
}

// Columns holds the input file as three parallel sequences, in file order.
type Columns struct {
	Texts      []string
	Sentiments []int64
	Emotions   []int64
}

// Len returns the number of rows.
func (c *Columns) Len() int {
	return len(c.Texts)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadColumns reads the CSV file at filePath, which must have a header with the columns "text", "sentiment"
// and "emotion" (other columns are ignored).
//
// Errors: a missing file wraps fs.ErrNotExist; a missing column wraps ErrSchema; an invalid CSV or label wraps
// ErrParse. The header is validated before any row is decoded.
func ReadColumns(filePath string) (*Columns, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", filePath)
	}
	columns, err := ParseColumns(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "while reading %q", filePath)
	}
	return columns, nil
}

// ParseColumns parses CSV content, see ReadColumns.
func ParseColumns(content []byte) (*Columns, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	header, err := csv.NewReader(bytes.NewReader(content)).Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(ErrParse, "empty file, a header is required")
		}
		return nil, errors.Wrapf(ErrParse, "invalid header: %v", err)
	}
	for _, column := range RequiredColumns {
		if !slices.Contains(header, column) {
			return nil, errors.Wrapf(ErrSchema, "column %q not found in header %q", column, header)
		}
	}

	var rows []*Row
	if err := gocsv.UnmarshalBytes(content, &rows); err != nil {
		return nil, errors.Wrapf(ErrParse, "%v", err)
	}
	columns := &Columns{
		Texts:      make([]string, len(rows)),
		Sentiments: make([]int64, len(rows)),
		Emotions:   make([]int64, len(rows)),
	}
	for ii, row := range rows {
		columns.Texts[ii] = row.Text
		columns.Sentiments[ii] = int64(row.Sentiment)
		columns.Emotions[ii] = int64(row.Emotion)
	}
	return columns, nil
}
