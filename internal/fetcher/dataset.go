package fetcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/landrank/internal/model"
)

// LoadOptions configures LoadDataset.
type LoadOptions struct {
	Sheet   string  // XLSX sheet name; empty = first sheet
	TempDir string  // download directory for remote sources; empty = os.TempDir()
	Router  *Router // required for remote sources
}

// Format is a parcel table file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the table format from a path or URL extension.
func DetectFormat(src string) (Format, error) {
	p := src
	if IsRemote(src) {
		if u, err := url.Parse(src); err == nil {
			p = u.Path
		}
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("fetcher: unsupported file type %q", src)
	}
}

// LoadDataset reads a parcel table from a local path or a remote URL.
func LoadDataset(ctx context.Context, src string, opts LoadOptions) (*model.Dataset, error) {
	format, err := DetectFormat(src)
	if err != nil {
		return nil, err
	}

	local, cleanup, err := materialize(ctx, src, format, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	data, err := os.ReadFile(local)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", src)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, eris.Errorf("fetcher: %s is empty", src)
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = ReadXLSX(local, XLSXOptions{SheetName: opts.Sheet})
	default:
		rows, err = ReadCSV(ctx, bytes.NewReader(data), CSVOptions{})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: parse %s", src)
	}

	sum := sha256.Sum256(data)
	ds, err := BuildDataset(src, hex.EncodeToString(sum[:]), rows)
	if err != nil {
		return nil, err
	}

	zap.L().Info("dataset loaded",
		zap.String("source", src),
		zap.Int("parcels", ds.Len()),
		zap.Int("columns", len(ds.Columns)),
	)
	return ds, nil
}

// materialize returns a local path for src, downloading remote sources into
// a temp file that cleanup removes.
func materialize(ctx context.Context, src string, format Format, opts LoadOptions) (string, func(), error) {
	if !IsRemote(src) {
		if _, err := os.Stat(src); err != nil {
			return "", func() {}, eris.Wrapf(err, "fetcher: open %s", src)
		}
		return src, func() {}, nil
	}

	if opts.Router == nil {
		return "", func() {}, eris.New("fetcher: remote source requires a router")
	}
	tmp, err := os.CreateTemp(opts.TempDir, "landrank-*."+string(format))
	if err != nil {
		return "", func() {}, eris.Wrap(err, "fetcher: create temp file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	cleanup := func() { _ = os.Remove(tmpPath) }

	n, err := opts.Router.DownloadToFile(ctx, src, tmpPath)
	if err != nil {
		cleanup()
		return "", func() {}, eris.Wrapf(err, "fetcher: download %s", src)
	}
	zap.L().Debug("downloaded source", zap.String("source", src), zap.Int64("bytes", n))

	return tmpPath, cleanup, nil
}

// BuildDataset turns raw rows (header first) into a Dataset. Header names are
// trimmed; blank or repeated names are made unique. Short rows are padded
// and blank rows skipped. A table without data rows is an error.
func BuildDataset(source, hash string, rows [][]string) (*model.Dataset, error) {
	var header []string
	start := 0
	for ; start < len(rows); start++ {
		if !blankRow(rows[start]) {
			header = rows[start]
			break
		}
	}
	if header == nil {
		return nil, eris.Errorf("fetcher: %s has no header row", filepath.Base(source))
	}

	columns := uniqueColumns(header)
	ds := &model.Dataset{Source: source, ContentHash: hash, Columns: columns}

	for _, row := range rows[start+1:] {
		if blankRow(row) {
			continue
		}
		cells := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				cells[col] = strings.TrimSpace(row[i])
			} else {
				cells[col] = ""
			}
		}
		ds.Parcels = append(ds.Parcels, model.Parcel{Seq: len(ds.Parcels), Cells: cells})
	}

	if len(ds.Parcels) == 0 {
		return nil, eris.Errorf("fetcher: %s has no data rows", filepath.Base(source))
	}
	return ds, nil
}

func uniqueColumns(header []string) []string {
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	out := make([]string, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for used[name] {
			suffix[base]++
			name = fmt.Sprintf("%s.%d", base, suffix[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
