package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"paaharvest/internal/models"
)

// ErrStoreNotFound indicates no store file exists for a keyword yet.
var ErrStoreNotFound = errors.New("store file not found")

const sheetName = "Sheet1"

// Column layout of a keyword store workbook.
const (
	colOriginalKeyword = "Original Keyword"
	colSearchTerm      = "Search Term"
	colKind            = "Type"
	colText            = "Question/Term"
	colSnippet         = "Snippet"
	colSourceLink      = "Source Link"
	colDiscoveryLevel  = "Discovery Level"
	colOrigin          = "Data Source"
)

var columns = []string{
	colOriginalKeyword,
	colSearchTerm,
	colKind,
	colText,
	colSnippet,
	colSourceLink,
	colDiscoveryLevel,
	colOrigin,
}

// readTable loads all records from the xlsx store at path. Columns are
// resolved by header name so a reordered workbook still reads correctly.
func readTable(path string) ([]models.HarvestRecord, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStoreNotFound
		}

		return nil, fmt.Errorf("failed to stat store: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read store sheet: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}

		return row[i]
	}

	var records []models.HarvestRecord

	for _, row := range rows[1:] {
		text := cell(row, colText)
		if text == "" {
			continue
		}

		level, _ := strconv.Atoi(cell(row, colDiscoveryLevel))

		records = append(records, models.HarvestRecord{
			OriginalKeyword: cell(row, colOriginalKeyword),
			SearchTerm:      cell(row, colSearchTerm),
			Kind:            models.RecordKind(cell(row, colKind)),
			Text:            text,
			Snippet:         cell(row, colSnippet),
			SourceLink:      cell(row, colSourceLink),
			DiscoveryLevel:  level,
			Origin:          models.RecordOrigin(cell(row, colOrigin)),
		})
	}

	return records, nil
}

// writeTable atomically rewrites the store at path: the workbook is written
// to a temp file in the target directory and renamed over the destination,
// so an interrupted write never leaves a truncated store behind.
func writeTable(path string, records []models.HarvestRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write store header: %w", err)
	}

	for i, r := range records {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address store row: %w", err)
		}

		row := []interface{}{
			r.OriginalKeyword,
			r.SearchTerm,
			string(r.Kind),
			r.Text,
			r.Snippet,
			r.SourceLink,
			r.DiscoveryLevel,
			string(r.Origin),
		}

		if err := f.SetSheetRow(sheetName, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write store row: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp store: %w", err)
	}

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write store workbook: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to flush temp store: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace store: %w", err)
	}

	return nil
}
