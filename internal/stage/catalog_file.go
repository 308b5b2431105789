package stage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCatalogFile reads a stage catalog from a CSV file.
//
// CSV format:
//
//	id,name,sequence,restricted
//	1,ประสานงาน,1,false
//	7,ออกแบบ,3,false
//	5,การเงิน,8,true
//
// The restricted column is optional and defaults to false. Rows may appear in
// any order; the result is sorted by sequence.
func ReadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to open stage catalog: %w", err)
	}
	defer f.Close()

	return readCatalog(f)
}

// ReadCatalogString parses a stage catalog from a CSV string.
func ReadCatalogString(data string) (Catalog, error) {
	return readCatalog(strings.NewReader(data))
}

func readCatalog(r io.Reader) (Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read stage catalog header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return Catalog{}, err
	}

	var stages []Stage
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Catalog{}, fmt.Errorf("failed to read stage catalog line %d: %w", lineNum, err)
		}

		s, err := parseRecord(record, colIndex)
		if err != nil {
			return Catalog{}, fmt.Errorf("stage catalog line %d: %w", lineNum, err)
		}
		stages = append(stages, s)
	}

	if len(stages) == 0 {
		return Catalog{}, fmt.Errorf("stage catalog contains no stages")
	}

	return NewCatalog(stages)
}

func parseRecord(record []string, colIndex map[string]int) (Stage, error) {
	id, err := strconv.ParseInt(getField(record, colIndex, "id"), 10, 64)
	if err != nil {
		return Stage{}, fmt.Errorf("invalid id: %w", err)
	}

	name := getField(record, colIndex, "name")
	if name == "" {
		return Stage{}, fmt.Errorf("stage name is required")
	}

	seq, err := strconv.Atoi(getField(record, colIndex, "sequence"))
	if err != nil {
		return Stage{}, fmt.Errorf("invalid sequence: %w", err)
	}

	restricted := false
	if raw := getField(record, colIndex, "restricted"); raw != "" {
		restricted, err = strconv.ParseBool(raw)
		if err != nil {
			return Stage{}, fmt.Errorf("invalid restricted flag %q", raw)
		}
	}

	return Stage{ID: id, Name: name, Sequence: seq, Restricted: restricted}, nil
}

var requiredColumns = []string{"id", "name", "sequence"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("stage catalog missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
