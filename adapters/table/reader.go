package table

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gocuts/internal"
	"gocuts/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Reader loads run tables from CSV or XLSX files. The first row holds the
// column names; empty cells read as NaN.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewReader creates a reader choosing the format by file extension.
func NewReader(filePath string, logger *internal.Logger) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := strings.TrimPrefix(ext, ".")
	return &Reader{filePath: filePath, fileType: fileType, sheet: "Sheet1", logger: logger.With("table")}
}

// WithSheet selects the worksheet read from XLSX files.
func (r *Reader) WithSheet(sheet string) *Reader {
	r.sheet = sheet
	return r
}

// Read loads the file into a Table.
func (r *Reader) Read() (*Table, error) {
	r.logger.Info("reading %s file %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	case "xlsx":
		rows, err = r.readExcel()
	default:
		return nil, errors.UnsupportedFormat(r.fileType)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

func (r *Reader) readExcel() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.DataAccess("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.DataAccess(fmt.Sprintf("failed to read %s", r.sheet), err)
	}
	return rows, nil
}

func (r *Reader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.DataAccess("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.DataAccess("failed to read CSV file", err)
	}
	return rows, nil
}

// processRows converts raw string rows into numeric columns
func (r *Reader) processRows(rows [][]string) (*Table, error) {
	if len(rows) < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s has no header row", r.filePath))
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	columns := make([][]float64, len(headers))
	for i := range columns {
		columns[i] = make([]float64, 0, len(rows)-1)
	}
	for n, row := range rows[1:] {
		for j := range headers {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d column %q: %v", n+2, headers[j], err))
			}
			columns[j] = append(columns[j], v)
		}
	}

	r.logger.Info("%s processed (%d columns, %d rows)", r.filePath, len(headers), len(rows)-1)
	return New(headers, columns)
}

func parseCell(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "nan":
		return math.NaN(), nil
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return strconv.ParseFloat(cell, 64)
}
