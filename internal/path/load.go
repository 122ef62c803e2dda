package path

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/mpcdrive/internal/dynamo"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Load reads waypoints from a .csv file (x,y per row, optional header)
// or a .yaml/.yml list of {x, y} mappings.
func Load(name string) (p Path, err error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return ReadCSV(f)
	}
}

func ReadCSV(r io.Reader) (Path, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make(Path, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: want 2 columns, got %d", i+1, len(rec))
		}
		x, errX := strconv.ParseFloat(rec[0], 64)
		y, errY := strconv.ParseFloat(rec[1], 64)
		if errX != nil || errY != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %w", i+1, multierr.Combine(errX, errY))
		}
		out = append(out, dynamo.Point{X: x, Y: y})
	}
	return out, nil
}

func ReadYAML(r io.Reader) (Path, error) {
	var pts []dynamo.Point
	if err := yaml.NewDecoder(r).Decode(&pts); err != nil {
		return nil, err
	}
	return Path(pts), nil
}

func WriteCSV(w io.Writer, p Path) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}
	for _, pt := range p {
		row := []string{
			strconv.FormatFloat(pt.X, 'f', 6, 64),
			strconv.FormatFloat(pt.Y, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
