package table

// reader.go parses uploaded files into tables.
//
// CSV input is decoded through a BOM-aware UTF-8 decoder so files saved by
// Windows tools (UTF-8 with BOM, or UTF-16 with BOM) read the same as plain
// UTF-8; invalid bytes become U+FFFD instead of failing the parse.
// Excel input uses the first worksheet with raw (unformatted) cell values.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format identifies an upload file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// ErrEmptyFile is returned when an upload has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrUnsupportedFormat is returned for file names that are neither .csv nor .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file type")
)

// DetectFormat picks the parser from the file extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, fileName)
}

// Read parses r according to the extension of fileName.
func Read(fileName string, r io.Reader) (*Table, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadExcel(r)
	}
	return ReadCSV(r)
}

// NewDecodingReader strips a byte order mark and yields valid UTF-8.
func NewDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadCSV parses comma separated text with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(NewDecodingReader(r))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		records = append(records, rec)
	}

	t, err := FromText(normalizeHeader(header), records)
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return t, nil
}

// ReadExcel parses the first worksheet of an .xlsx workbook. The first row is the header.
func ReadExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("invalid excel: sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	header := rows[0]
	records := rows[1:]
	for len(records) > 0 && isBlankRecord(records[len(records)-1]) {
		records = records[:len(records)-1]
	}

	// Excel rows may be wider than the header when stray cells sit to the right.
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}

	t, err := FromText(normalizeHeader(header), records)
	if err != nil {
		return nil, fmt.Errorf("invalid excel: %w", err)
	}
	return t, nil
}

// isBlankRecord reports whether every field of a record is empty. Blank rows
// inside the data are kept as all-null rows; only trailing Excel rows are cut.
func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

// normalizeHeader names blank headers "Unnamed: i" and suffixes repeated names
// with ".1", ".2", ... so column names are unique.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
