package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ignite/listguard/internal/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatJSON
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// RowWriter writes subscribers one at a time. Close must be called to
// flush trailing output.
type RowWriter interface {
	Write(s domain.Subscriber) error
	Close() error
}

// NewRowWriter returns a writer for format f.
func NewRowWriter(f Format, w io.Writer) (RowWriter, error) {
	switch f {
	case FormatCSV:
		return newCSVWriter(w), nil
	case FormatJSON:
		return &jsonWriter{w: w}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{"id", "email", "name", "status", "tags", "metadata", "verified_at", "created_at"}

type csvWriter struct {
	cw          *csv.Writer
	wroteHeader bool
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{cw: csv.NewWriter(w)}
}

func (c *csvWriter) Write(s domain.Subscriber) error {
	if !c.wroteHeader {
		if err := c.cw.Write(CSVHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	meta := ""
	if len(s.Metadata) > 0 {
		b, err := json.Marshal(s.Metadata)
		if err != nil {
			return fmt.Errorf("metadata for %s: %w", s.ID, err)
		}
		meta = string(b)
	}
	verified := ""
	if s.VerifiedAt != nil {
		verified = s.VerifiedAt.UTC().Format(time.RFC3339)
	}
	tags := append([]string(nil), s.Tags...)
	sort.Strings(tags)
	return c.cw.Write([]string{
		s.ID,
		s.Email,
		s.Name,
		string(s.Status),
		strings.Join(tags, ";"),
		meta,
		verified,
		s.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (c *csvWriter) Close() error {
	c.cw.Flush()
	return c.cw.Error()
}

// jsonWriter streams a JSON array without buffering the whole list.
type jsonWriter struct {
	w     io.Writer
	count int
}

func (j *jsonWriter) Write(s domain.Subscriber) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	prefix := ","
	if j.count == 0 {
		prefix = "["
	}
	j.count++
	if _, err := io.WriteString(j.w, prefix); err != nil {
		return err
	}
	_, err = j.w.Write(b)
	return err
}

func (j *jsonWriter) Close() error {
	if j.count == 0 {
		_, err := io.WriteString(j.w, "[]")
		return err
	}
	_, err := io.WriteString(j.w, "]\n")
	return err
}
