package data

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// NullTokens are the cell values read as missing for nullable fields.
var NullTokens = []string{"", "NA", "NaN", "nan", "null", "NULL"}

func isNull(s string) bool {
	for _, t := range NullTokens {
		if s == t {
			return true
		}
	}
	return false
}

// CSVLoader loads a Dataset from a CSV file with a header row.
type CSVLoader struct {
	Path   string
	Schema Schema
}

// Load reads the file at l.Path.
func (l CSVLoader) Load(ctx context.Context) (*Dataset, error) {
	return LoadCSV(ctx, l.Path, l.Schema)
}

// LoadCSV opens path and reads it with ReadCSV.
// An unreadable path is reported as core.ErrIO.
func LoadCSV(ctx context.Context, path string, schema Schema) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, core.IOError("data.load", err)
	}
	defer file.Close()
	return ReadCSV(ctx, bufio.NewReader(file), schema)
}

// ReadCSV parses CSV from r and validates it against schema. The header must
// contain every declared field; with a strict schema it must contain nothing
// else. Cells that do not parse as their declared kind are core.ErrParse
// failures naming the column and line.
func ReadCSV(ctx context.Context, r io.Reader, schema Schema) (*Dataset, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.ParseError("data.load", "empty input: no header row")
	}
	if err != nil {
		return nil, readError(err)
	}

	positions, err := resolveHeader(header, schema)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = Column{Field: f}
	}

	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		for i, f := range schema.Fields {
			raw := strings.TrimSpace(rec[positions[i]])
			if err := appendCell(&cols[i], f, raw, line); err != nil {
				return nil, err
			}
		}
	}

	return New(cols...)
}

// resolveHeader maps every schema field to its position in the header row.
func resolveHeader(header []string, schema Schema) ([]int, error) {
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := seen[h]; dup {
			return nil, core.ParseError("data.load", "duplicate column %q in header", h)
		}
		seen[h] = i
		if schema.Strict {
			if _, ok := schema.Field(h); !ok {
				return nil, core.ParseError("data.load", "unexpected column %q", h)
			}
		}
	}

	positions := make([]int, len(schema.Fields))
	var missing []string
	for i, f := range schema.Fields {
		pos, ok := seen[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		positions[i] = pos
	}
	if len(missing) > 0 {
		return nil, core.ParseError("data.load", "missing columns %q", missing)
	}
	return positions, nil
}

func appendCell(c *Column, f Field, raw string, line int) error {
	if f.Kind == String {
		c.Strings = append(c.Strings, raw)
		return nil
	}
	if isNull(raw) {
		if !f.Nullable {
			return core.ParseError("data.load", "line %d: column %q: missing value", line, f.Name)
		}
		if f.Kind == Date {
			c.Times = append(c.Times, time.Time{})
		} else {
			c.Floats = append(c.Floats, math.NaN())
		}
		return nil
	}

	switch f.Kind {
	case Float, Int:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.ParseError("data.load", "line %d: column %q: %q is not a number", line, f.Name, raw)
		}
		if f.Kind == Int && v != math.Trunc(v) {
			return core.ParseError("data.load", "line %d: column %q: %q is not an integer", line, f.Name, raw)
		}
		c.Floats = append(c.Floats, v)
	case Date:
		ts, err := time.Parse(f.layout(), raw)
		if err != nil {
			return core.ParseError("data.load", "line %d: column %q: %q does not match layout %q", line, f.Name, raw, f.layout())
		}
		c.Times = append(c.Times, ts)
	}
	return nil
}

// readError classifies a csv reader failure: malformed CSV is a parse error,
// anything else came from the underlying reader.
func readError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return core.ParseError("data.load", "%v", perr)
	}
	return core.IOError("data.load", err)
}
