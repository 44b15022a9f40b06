package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/lineowners/internal/core"
)

// LoadCSVFile reads a CSV file into a dataset.
func LoadCSVFile(path string, schema Schema) (*core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return LoadCSV(f, path, schema)
}

// LoadCSV reads delimited records into a dataset. The delimiter is sniffed
// from the header line: Swedish Excel writes semicolons.
func LoadCSV(r io.Reader, name string, schema Schema) (*core.Dataset, error) {
	counter := wrapForStreaming(r)
	br := bufio.NewReader(counter)
	head, _ := br.Peek(4096)

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(head)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &core.LoadError{Source: name, Err: core.ErrEmptySource}
	}
	if err != nil {
		return nil, &core.LoadError{Source: name, Err: err}
	}

	b, err := newBuilder(name, schema, header)
	if err != nil {
		return nil, err
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.LoadError{Source: name, Err: err}
		}
		b.add(rec)
	}

	slog.Debug("csv source read",
		"source", name,
		"rows", len(b.rows),
		"bytes", counter.BytesRead,
		"delimiter", string(cr.Comma),
	)
	return b.dataset()
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the first
// line, ignoring quoted text. Comma wins ties.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	counts := map[byte]int{}
	quoted := false
	for _, c := range head {
		switch c {
		case '"':
			quoted = !quoted
		case ',', ';', '\t':
			if !quoted {
				counts[c]++
			}
		}
	}

	best := byte(',')
	for _, c := range []byte{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return rune(best)
}
