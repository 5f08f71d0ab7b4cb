package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/internal/utils"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Source is one yearly input file.
type Source struct {
	Path string
	Year int
}

var yearInName = regexp.MustCompile(`(?:^|[^0-9])(20[0-9]{2})(?:[^0-9]|$)`)

// ParseSource accepts "path" or "path=year". Without an explicit year, the
// first 20xx number in the file name is used.
func ParseSource(arg string) (Source, error) {
	arg = strings.TrimSpace(arg)
	if i := strings.LastIndex(arg, "="); i > 0 {
		if y, err := strconv.Atoi(strings.TrimSpace(arg[i+1:])); err == nil {
			if y <= 0 {
				return Source{}, fmt.Errorf("%w: %s (year must be positive)", ErrNoYear, arg)
			}
			return Source{Path: strings.TrimSpace(arg[:i]), Year: y}, nil
		}
	}
	m := yearInName.FindStringSubmatch(filepath.Base(arg))
	if m == nil {
		return Source{}, fmt.Errorf("%w: %s (use path=year)", ErrNoYear, arg)
	}
	y, _ := strconv.Atoi(m[1])
	return Source{Path: arg, Year: y}, nil
}

// LoadOptions controls how raw files are read.
type LoadOptions struct {
	// Delimiter for delimited text; 0 means ';'.
	Delimiter rune
	// Encoding is "latin1" (default) or "utf8".
	Encoding string
	// MaxRows caps the data rows kept per file; 0 means unlimited.
	MaxRows int
	// SampleRows is how many leading rows are retained verbatim for display.
	SampleRows int
	// Sheet selects the XLSX sheet; empty means the first one.
	Sheet string
}

// Raw is an untyped table as read from disk.
type Raw struct {
	Name    string
	Header  []string
	Rows    [][]string
	Skipped int
	// Truncated is set when MaxRows stopped the read early.
	Truncated bool
}

// ReadRaw reads a delimited text or .xlsx file. Rows that cannot be parsed,
// or that carry more fields than the header, are skipped and counted.
func ReadRaw(path string, opt LoadOptions) (*Raw, error) {
	ok, err := utils.FileExists(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !ok {
		return nil, &MissingFileError{Path: path}
	}
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return readXLSX(path, opt)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	raw, err := readDelimited(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	raw.Name = filepath.Base(path)
	return raw, nil
}

func readDelimited(src io.Reader, opt LoadOptions) (*Raw, error) {
	var in io.Reader = bufio.NewReader(src)
	switch strings.ToLower(opt.Encoding) {
	case "", "latin1", "latin-1", "iso-8859-1":
		in = charmap.ISO8859_1.NewDecoder().Reader(in)
	case "utf8", "utf-8":
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", opt.Encoding)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = ';'
	}
	r := csv.NewReader(in)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Raw{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := &Raw{Header: append([]string(nil), header...)}
	ncol := len(header)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				raw.Skipped++
				slog.Debug("skipping malformed row", slog.Int("line", perr.Line), slog.String("error", perr.Err.Error()))
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw.Rows)+raw.Skipped+1, err)
		}
		if !raw.add(rec, ncol, opt.MaxRows) {
			break
		}
	}
	return raw, nil
}

// add appends one record, padding short rows. It reports false once MaxRows is reached.
func (raw *Raw) add(rec []string, ncol, maxRows int) bool {
	if len(rec) > ncol {
		raw.Skipped++
		return true
	}
	if maxRows > 0 && len(raw.Rows) >= maxRows {
		raw.Truncated = true
		return false
	}
	row := make([]string, ncol)
	copy(row, rec)
	raw.Rows = append(raw.Rows, row)
	return true
}

func readXLSX(path string, opt LoadOptions) (*Raw, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheet := opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("workbook '%s' has no sheets", filepath.Base(path))
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet '%s' in workbook '%s': %w", sheet, filepath.Base(path), err)
	}
	raw := &Raw{Name: filepath.Base(path)}
	if len(rows) == 0 {
		return raw, nil
	}
	raw.Header = append([]string(nil), rows[0]...)
	for _, rec := range rows[1:] {
		if !raw.add(rec, len(raw.Header), opt.MaxRows) {
			break
		}
	}
	return raw, nil
}
