package admission

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// FormatFor picks the import format from a file name, falling back to the
// content type.
func FormatFor(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	}
	switch {
	case strings.Contains(contentType, "json"):
		return "json"
	case strings.Contains(contentType, "csv"):
		return "csv"
	}
	return ""
}

// ParseRows decodes an import file in the given format.
func ParseRows(format string, r io.Reader) ([]Candidate, error) {
	switch format {
	case "csv":
		return ParseCSV(r)
	case "json":
		return ParseJSON(r)
	}
	return nil, ErrUnsupportedFormat
}

// ParseCSV reads a CSV file with a header row. The email column is
// required, name is optional and any other column lands in metadata.
func ParseCSV(r io.Reader) ([]Candidate, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []Candidate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	emailCol, nameCol := -1, -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		switch strings.ToLower(header[i]) {
		case "email", "email_address", "e-mail":
			if emailCol < 0 {
				emailCol = i
			}
		case "name", "full_name":
			if nameCol < 0 {
				nameCol = i
			}
		}
	}
	if emailCol < 0 {
		return nil, ErrMissingEmailColumn
	}

	rows := []Candidate{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		c := Candidate{}
		for i, v := range rec {
			v = strings.TrimSpace(v)
			switch {
			case i == emailCol:
				c.Email = v
			case i == nameCol:
				c.Name = v
			case i < len(header) && header[i] != "" && v != "":
				if c.Metadata == nil {
					c.Metadata = map[string]any{}
				}
				c.Metadata[header[i]] = v
			}
		}
		if c.Email == "" && c.Name == "" && c.Metadata == nil {
			continue
		}
		rows = append(rows, c)
	}
	return rows, nil
}

// ParseJSON reads a JSON array of {email, name, metadata} objects.
func ParseJSON(r io.Reader) ([]Candidate, error) {
	var rows []Candidate
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	if rows == nil {
		rows = []Candidate{}
	}
	return rows, nil
}
