package importers

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jcourtner/leadpipe/internal/common"
	"github.com/jcourtner/leadpipe/internal/intake"
)

// headerAliases maps the column names seen in the wild onto record fields.
// Matching is case-insensitive after trimming; a file only needs the
// columns it has.
var headerAliases = map[string]string{
	"first_name":    "first_name",
	"first name":    "first_name",
	"firstname":     "first_name",
	"last_name":     "last_name",
	"last name":     "last_name",
	"lastname":      "last_name",
	"name":          "full_name",
	"full_name":     "full_name",
	"full name":     "full_name",
	"email":         "email",
	"email_address": "email",
	"e-mail":        "email",
	"phone":         "phone",
	"phone_number":  "phone",
	"mobile":        "phone",
	"company":       "company",
	"company_name":  "company",
	"company name":  "company",
	"organization":  "company",
	"title":         "title",
	"job_title":     "title",
	"job title":     "title",
	"state":         "state",
	"region":        "state",
	"source":        "source",
	"notes":         "notes",
	"note":          "notes",
}

// ParseCSVFile reads a prospect CSV from disk.
func ParseCSVFile(path string) ([]intake.ImportRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.NewUserError(
			fmt.Sprintf("cannot open import file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	return ParseCSV(f)
}

// ParseCSV reads prospect records from CSV data. The first row is the
// header. Rows missing every mapped field are skipped with a warning
// rather than failing the whole file.
func ParseCSV(r io.Reader) ([]intake.ImportRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, common.NewUserError("import file is empty", common.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	fields := make(map[int]string, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if field, ok := headerAliases[key]; ok {
			fields[i] = field
		}
	}
	if len(fields) == 0 {
		return nil, common.NewUserError(
			"import file has no recognized columns (need at least name, email, or phone headers)",
			common.ErrValidation)
	}

	var records []intake.ImportRecord
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Skipping malformed csv row", "line", line, "error", err)
			continue
		}

		record := recordFromRow(row, fields)
		if record.FirstName == "" && record.LastName == "" && record.Email == "" && record.Phone == "" {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func recordFromRow(row []string, fields map[int]string) intake.ImportRecord {
	var record intake.ImportRecord
	for i, value := range row {
		field, ok := fields[i]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch field {
		case "first_name":
			record.FirstName = value
		case "last_name":
			record.LastName = value
		case "full_name":
			if record.FirstName == "" && record.LastName == "" {
				record.FirstName, record.LastName = splitName(value)
			}
		case "email":
			record.Email = value
		case "phone":
			record.Phone = value
		case "company":
			record.CompanyName = value
		case "title":
			record.Title = value
		case "state":
			record.State = value
		case "source":
			record.Source = value
		case "notes":
			record.Notes = value
		}
	}
	return record
}

// splitName breaks "Jane Q. Doe" into first "Jane Q." and last "Doe".
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
