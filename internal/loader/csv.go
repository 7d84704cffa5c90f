package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// readCSV reads every record of a delimited text file. Records may vary in
// length; scraped tables are ragged where trailing cells are empty.
func readCSV(path string, delimiter string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	if delimiter == "tab" {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}

	// Our own exports carry a UTF-8 BOM for Excel; strip it on the way in
	if len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\uFEFF")
	}

	return records, nil
}
