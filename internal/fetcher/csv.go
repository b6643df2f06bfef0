// Package fetcher downloads parcel tables from local, HTTP and FTP sources and
// parses them from CSV or XLSX.
package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffWindow is how much of the input is peeked to find the header line.
const sniffWindow = 4096

// CSVOptions configures the parcel table reader.
type CSVOptions struct {
	Delimiter rune // 0 = sniff from the header line
	Strict    bool // reject bare quotes inside unquoted fields
}

// candidateDelimiters are tried, in order of preference, when sniffing.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the candidate delimiter that occurs most often in
// line outside of double quotes. Ties go to the earlier candidate; a line
// with none of them yields ','.
func SniffDelimiter(line string) rune {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestN := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best
}

// decodeUTF returns a reader that strips a UTF-8 BOM and transcodes UTF-16
// input (detected by its BOM) to UTF-8.
func decodeUTF(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// newCSVReader decodes r and configures a csv.Reader for it, sniffing the
// delimiter when none is set.
func newCSVReader(r io.Reader, opts CSVOptions) *csv.Reader {
	br := bufio.NewReader(decodeUTF(r))
	delim := opts.Delimiter
	if delim == 0 {
		peek, _ := br.Peek(sniffWindow)
		header, _, _ := bytes.Cut(peek, []byte("\n"))
		delim = SniffDelimiter(strings.TrimSuffix(string(header), "\r"))
	}

	reader := csv.NewReader(br)
	reader.Comma = delim
	reader.LazyQuotes = !opts.Strict
	reader.FieldsPerRecord = -1 // ragged rows are padded later
	return reader
}

// StreamCSV sends each record of r, header included, on the row channel.
// The error channel carries at most one error. Both channels close when the
// input ends, fails or ctx is done.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := newCSVReader(r, opts)
		for n := 1; ; n++ {
			if err := ctx.Err(); err != nil {
				errCh <- eris.Wrap(err, "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- eris.Wrapf(err, "csv: read record %d", n)
				return
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV collects every record of r, header included.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return rows, err
	}
	return rows, nil
}
