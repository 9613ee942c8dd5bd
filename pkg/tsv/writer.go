package tsv

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NA is written for absent values.
const NA = "NA"

// Writer serialises rows with a fixed column order. The header, when
// enabled, is emitted before the first row or on Flush for empty tables.
// Fields are written verbatim, never quoted.
type Writer struct {
	bw          *bufio.Writer
	columns     []string
	header      bool
	wroteHeader bool
}

// NewWriter creates a tab-delimited writer for the given columns.
func NewWriter(w io.Writer, columns []string, header bool) *Writer {
	return &Writer{bw: bufio.NewWriter(w), columns: columns, header: header}
}

func (w *Writer) writeHeader() error {
	if !w.header || w.wroteHeader {
		return nil
	}
	w.wroteHeader = true
	return w.writeLine(w.columns)
}

func (w *Writer) writeLine(fields []string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, "\t\r\n") {
			return fmt.Errorf("tsv: field %q contains a tab or line break", f)
		}
	}
	if _, err := w.bw.WriteString(strings.Join(fields, "\t")); err != nil {
		return err
	}
	return w.bw.WriteByte('\n')
}

// Write appends one row; the number of fields must match the columns.
func (w *Writer) Write(fields ...string) error {
	if len(fields) != len(w.columns) {
		return fmt.Errorf("tsv: row has %d fields, want %d", len(fields), len(w.columns))
	}
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.writeLine(fields)
}

// Flush writes any buffered data, including a pending header.
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.bw.Flush()
}

// FormatFloat renders v in the shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatNullFloat renders a nullable number, NA when invalid.
func FormatNullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return NA
	}
	return FormatFloat(v.Float64)
}

// FormatNullInt renders a nullable integer, NA when invalid.
func FormatNullInt(v sql.NullInt64) string {
	if !v.Valid {
		return NA
	}
	return strconv.FormatInt(v.Int64, 10)
}
