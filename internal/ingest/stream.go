package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one data row of the source file.
type Row struct {
	// Index is the 1-based position among data rows (header excluded).
	// It matches the semantics of SourceFile.LastProcessedLine.
	Index int64

	// Fields maps lowercased header names to raw cell values. An empty
	// string means the cell was empty; the normalizer decides what absent
	// means.
	Fields map[string]string
}

// CSVFile describes an opened call record file: its header layout and total
// data row count. Row iteration is a separate, restartable pass via RowsFrom.
type CSVFile struct {
	path    string
	headers []string
	total   int64
}

// OpenCSV reads the file's header row and counts its data rows.
// The file itself is not held open; each RowsFrom call streams it anew.
func OpenCSV(path string) (*CSVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := newCSVReader(f)

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv %s: missing header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.ToLower(cleanCell(h))
	}

	var total int64
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("count rows of %s: %w", path, err)
		}
		total++
	}

	return &CSVFile{path: path, headers: headers, total: total}, nil
}

// TotalRows returns the number of data rows (header excluded).
func (c *CSVFile) TotalRows() int64 { return c.total }

// Headers returns the cleaned, lowercased header names.
func (c *CSVFile) Headers() []string { return c.headers }

// RowsFrom opens a streaming pass over the data rows, yielding rows strictly
// after the given 1-based offset. The iterator is single-pass; call RowsFrom
// again with a new offset to restart.
func (c *CSVFile) RowsFrom(offset int64) (*RowIter, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	r := newCSVReader(f)

	// Skip the header and the already-processed rows.
	if _, err := r.Read(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read header of %s: %w", c.path, err)
	}
	for i := int64(0); i < offset; i++ {
		if _, err := r.Read(); err != nil {
			f.Close()
			if err == io.EOF {
				// Offset at or beyond end of file: an empty iteration.
				return &RowIter{headers: c.headers, idx: offset, done: true}, nil
			}
			return nil, fmt.Errorf("skip to row %d of %s: %w", offset, c.path, err)
		}
	}

	return &RowIter{file: f, r: r, headers: c.headers, idx: offset}, nil
}

// RowIter iterates the data rows of a CSVFile. Usage:
//
//	it, err := file.RowsFrom(offset)
//	defer it.Close()
//	for it.Next() {
//	    row := it.Row()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type RowIter struct {
	file    *os.File
	r       *csv.Reader
	headers []string
	idx     int64
	cur     Row
	err     error
	done    bool
}

// Next advances to the next row. It returns false at end of input or on
// error; check Err afterwards.
func (it *RowIter) Next() bool {
	if it.done {
		return false
	}

	record, err := it.r.Read()
	if err == io.EOF {
		it.finish()
		return false
	}
	if err != nil {
		it.err = fmt.Errorf("read row %d: %w", it.idx+1, err)
		it.finish()
		return false
	}

	it.idx++
	fields := make(map[string]string, len(it.headers))
	for i, h := range it.headers {
		if i < len(record) {
			fields[h] = cleanCell(record[i])
		} else {
			fields[h] = ""
		}
	}
	it.cur = Row{Index: it.idx, Fields: fields}
	return true
}

// Row returns the current row. Valid only after Next returned true.
func (it *RowIter) Row() Row { return it.cur }

// Err returns the first error encountered during iteration, if any.
func (it *RowIter) Err() error { return it.err }

// Close releases the underlying file. Safe to call multiple times.
func (it *RowIter) Close() error {
	it.done = true
	if it.file == nil {
		return nil
	}
	f := it.file
	it.file = nil
	return f.Close()
}

func (it *RowIter) finish() {
	it.done = true
	if it.file != nil {
		it.file.Close()
		it.file = nil
	}
}

// newCSVReader builds a lenient csv.Reader over the file, skipping a UTF-8
// BOM if the download step wrote one.
func newCSVReader(f io.Reader) *csv.Reader {
	br := bufio.NewReader(f)
	if peek, err := br.Peek(3); err == nil && peek[0] == 0xEF && peek[1] == 0xBB && peek[2] == 0xBF {
		br.Discard(3)
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

// cleanCell removes common CSV artifacts from a cell value:
// surrounding whitespace and Excel formula prefixes (="value").
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(s)
}
