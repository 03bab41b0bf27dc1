package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/semanticallynull/tripstats-backend/record"
)

// DiscoverFiles lists the .csv files directly inside dir in lexicographic order.
func DiscoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputDirNotFound, dir)
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputFiles, dir)
	}

	sort.Strings(files)
	return files, nil
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// errMalformedRow marks a line the CSV reader could not turn into a row. The next call
// to Next continues with the following line.
var errMalformedRow = errors.New("malformed CSV row")

// csvSource streams record.Rows out of one extract.
type csvSource struct {
	f    *os.File
	dec  *csvutil.Decoder
	line int
}

func openSource(path string) (*csvSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	br := bufio.NewReaderSize(f, 1<<16)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	r := csv.NewReader(br)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file", path)
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	if missing := missingColumns(dec.Header()); len(missing) > 0 {
		f.Close()
		return nil, fmt.Errorf("%s: %w: %s", path, ErrMissingColumns, strings.Join(missing, ", "))
	}

	return &csvSource{f: f, dec: dec, line: 1}, nil
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[strings.TrimSpace(h)] = true
	}
	var missing []string
	for _, c := range record.Columns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Next decodes the next row. It returns io.EOF at the end of the file and an error
// wrapping errMalformedRow for lines that cannot be decoded.
func (s *csvSource) Next(row *record.Row) error {
	*row = record.Row{}
	err := s.dec.Decode(row)
	if err == nil {
		s.line++
		return nil
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}

	var perr *csv.ParseError
	if errors.As(err, &perr) || errors.Is(err, csvutil.ErrFieldCount) {
		s.line++
		return fmt.Errorf("%w at line %d: %v", errMalformedRow, s.line, err)
	}
	return err
}

func (s *csvSource) Close() error {
	return s.f.Close()
}
