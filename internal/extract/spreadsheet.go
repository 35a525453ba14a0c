package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// extractCSV produces a "columns:" header line plus up to
// csvSampleRows data rows. The output is a sample for indexing, not a
// full dump.
func (e *Extractor) extractCSV(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open csv: %v", domain.ErrUnreadable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &Document{Text: "", Pages: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv: %v", domain.ErrUnreadable, err)
	}

	rows := make([][]string, 0, e.csvSampleRows)
	for len(rows) < e.csvSampleRows {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("%w: parse csv: %v", domain.ErrUnreadable, err)
		}
		rows = append(rows, row)
	}

	return &Document{Text: tableSample(header, rows), Pages: 1}, nil
}

// extractXlsx samples each sheet the same way extractCSV samples the
// file: header columns plus the first rows.
func (e *Extractor) extractXlsx(path string) (*Document, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", domain.ErrUnreadable, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()

	var parts []string
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		sample := rows[1:]
		if len(sample) > e.csvSampleRows {
			sample = sample[:e.csvSampleRows]
		}

		part := tableSample(rows[0], sample)
		if len(sheets) > 1 {
			part = "Sheet " + sheet + ":\n" + part
		}
		parts = append(parts, part)
	}

	return &Document{Text: strings.Join(parts, "\n\n"), Pages: len(sheets)}, nil
}

// tableSample renders "columns: c1, c2, ..." plus sample rows in CSV
// form.
func tableSample(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("columns: ")
	b.WriteString(strings.Join(header, ", "))
	b.WriteByte('\n')

	if len(rows) > 0 {
		w := csv.NewWriter(&b)
		for _, row := range rows {
			_ = w.Write(row)
		}
		w.Flush()
	}

	return strings.TrimRight(b.String(), "\n")
}
