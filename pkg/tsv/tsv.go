// Package tsv loads and writes the tab-delimited reports exchanged with the
// upstream genome tools.
//
// A Schema declares which columns a report must carry and how each one is
// typed and normalised. Loading keeps exactly the declared columns, in source
// row order, and fails fast when a required column is absent.
package tsv

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/scttfrdmn/magclass-go/pkg/storage"
)

var (
	// ErrMissingColumn is returned when a required column is absent from a report
	ErrMissingColumn = errors.New("missing column")
	// ErrMalformed is returned when a row cannot be parsed against its schema
	ErrMalformed = errors.New("malformed row")
)

// Kind is the semantic type of a column.
type Kind int

const (
	String Kind = iota
	Float
)

// Column declares one column of a report.
type Column struct {
	Name string
	Kind Kind

	// Position locates the column in headerless reports.
	Position int

	// Optional columns may be absent; their cells read as empty/null.
	Optional bool

	// Normalize is applied to string cells at load time.
	Normalize func(string) string
}

// Schema declares the columns a report is expected to provide.
type Schema struct {
	// Name identifies the report in error messages, usually its path.
	Name    string
	Header  bool
	Columns []Column
}

// WithName returns a copy of the schema labelled with name.
func (s Schema) WithName(name string) Schema {
	s.Name = name
	return s
}

// Table is an in-memory report restricted to the schema's columns.
type Table struct {
	name    string
	columns []Column
	index   map[string]int
	strs    [][]string
	nums    [][]sql.NullFloat64
}

// Name returns the report name the table was loaded from.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.strs) }

// Columns returns the column names in schema order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

func (t *Table) col(name string) int {
	i, ok := t.index[name]
	if !ok {
		panic(fmt.Sprintf("tsv: column %q not declared in schema of %s", name, t.name))
	}
	return i
}

// String returns the (normalised) cell at row i of column name.
func (t *Table) String(i int, name string) string {
	return t.strs[i][t.col(name)]
}

// Float returns the numeric cell at row i of column name. Empty and NA cells
// are returned as invalid.
func (t *Table) Float(i int, name string) sql.NullFloat64 {
	return t.nums[i][t.col(name)]
}

// Load reads the report at uri (local path or s3:// URI, optionally gzip or
// zstd compressed) against schema.
func Load(ctx context.Context, uri string, schema Schema) (*Table, error) {
	data, err := storage.ReadSource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if schema.Name == "" {
		schema.Name = uri
	}
	return Read(bytes.NewReader(data), schema)
}

// lineReader splits a report into tab-separated fields, one record per
// line. Quotes carry no meaning: a cell like `"Candidatus Foo" bar` is kept
// verbatim.
type lineReader struct {
	s    *bufio.Scanner
	line int
}

func newLineReader(r io.Reader) *lineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLine)
	return &lineReader{s: s}
}

// maxLine bounds a single report line.
const maxLine = 16 * 1024 * 1024

// Read returns the fields of the next non-blank line, or io.EOF.
func (lr *lineReader) Read() ([]string, error) {
	for lr.s.Scan() {
		lr.line++
		text := strings.TrimSuffix(lr.s.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		return strings.Split(text, "\t"), nil
	}
	if err := lr.s.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lr.line+1, err)
	}
	return nil, io.EOF
}

// Read parses a tab-delimited report from r against schema.
func Read(r io.Reader, schema Schema) (*Table, error) {
	cr := newLineReader(r)

	t := &Table{
		name:    schema.Name,
		columns: schema.Columns,
		index:   make(map[string]int, len(schema.Columns)),
	}
	for i, c := range schema.Columns {
		t.index[c.Name] = i
	}

	// positions maps schema column to source field; -1 marks an absent
	// optional column.
	positions := make([]int, len(schema.Columns))
	for i, c := range schema.Columns {
		positions[i] = c.Position
	}

	if schema.Header {
		header, err := cr.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("%s: %w: empty report, expected header", schema.Name, ErrMalformed)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.Name, err)
		}

		found := make(map[string]int, len(header))
		for i, h := range header {
			h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
			if _, dup := found[h]; !dup {
				found[h] = i
			}
		}

		for i, c := range schema.Columns {
			pos, ok := found[c.Name]
			switch {
			case ok:
				positions[i] = pos
			case c.Optional:
				positions[i] = -1
			default:
				return nil, fmt.Errorf("%s: %w %q", schema.Name, ErrMissingColumn, c.Name)
			}
		}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.Name, err)
		}
		line := cr.line

		strs := make([]string, len(schema.Columns))
		nums := make([]sql.NullFloat64, len(schema.Columns))

		for i, c := range schema.Columns {
			pos := positions[i]
			if pos < 0 {
				continue
			}
			if pos >= len(record) {
				if c.Optional {
					continue
				}
				return nil, fmt.Errorf("%s:%d: %w: %d fields, column %q expected at field %d",
					schema.Name, line, ErrMalformed, len(record), c.Name, pos+1)
			}

			cell := strings.TrimSpace(record[pos])
			switch c.Kind {
			case Float:
				v, err := ParseFloat(cell)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w: column %q: %v", schema.Name, line, ErrMalformed, c.Name, err)
				}
				nums[i] = v
				strs[i] = cell
			default:
				if c.Normalize != nil {
					cell = c.Normalize(cell)
				}
				strs[i] = cell
			}
		}

		t.strs = append(t.strs, strs)
		t.nums = append(t.nums, nums)
	}

	return t, nil
}

// ParseFloat parses a numeric cell. Empty, NA, NaN and N/A cells are null.
func ParseFloat(cell string) (sql.NullFloat64, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "na", "nan", "n/a", "none":
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid number %q", cell)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
