// Package impexp converts professionals and billing tables to and from the
// file formats accepted by the HTTP API.
package impexp

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"

	"staffquote/internal/domain"
)

const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

var requiredColumns = []string{"name", "role", "level", "is_vacancy", "hourly_cost"}

type Codec struct{}

func New() *Codec {
	return &Codec{}
}

// Formats lists the export formats ExportBillingTable understands.
func Formats() []string {
	return []string{FormatCSV, FormatJSON, FormatMsgpack}
}

// ImportProfessionals reads a CSV document with a header row. Rows that fail
// to parse are reported by line and skipped; a missing or malformed header
// fails the whole import.
func (c *Codec) ImportProfessionals(ctx context.Context, raw []byte) ([]domain.Professional, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("csv is empty: %w", domain.ErrValidation)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %v: %w", err, domain.ErrValidation)
	}

	columns := make(map[string]int, len(header))
	for index, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = index
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, nil, fmt.Errorf("csv header is missing column %q: %w", name, domain.ErrValidation)
		}
	}

	professionals := make([]domain.Professional, 0)
	rowErrors := make([]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, err.Error())
			continue
		}
		if blankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		professional, err := parseProfessional(record, columns)
		if err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		professionals = append(professionals, professional)
	}

	return professionals, rowErrors, nil
}

func parseProfessional(record []string, columns map[string]int) (domain.Professional, error) {
	field := func(name string) string {
		index, ok := columns[name]
		if !ok || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	name := field("name")
	if name == "" {
		return domain.Professional{}, errors.New("name is required")
	}

	isVacancy, err := parseBool(field("is_vacancy"))
	if err != nil {
		return domain.Professional{}, fmt.Errorf("is_vacancy: %w", err)
	}

	cost, err := parseAmount(field("hourly_cost"))
	if err != nil {
		return domain.Professional{}, fmt.Errorf("hourly_cost: %w", err)
	}
	if cost < 0 {
		return domain.Professional{}, errors.New("hourly_cost must not be negative")
	}

	return domain.Professional{
		PID:        field("pid"),
		Name:       name,
		Role:       field("role"),
		Level:      field("level"),
		IsVacancy:  isVacancy,
		HourlyCost: cost,
	}, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "", "false", "0", "no", "n", "nao", "não":
		return false, nil
	case "true", "1", "yes", "y", "sim", "s":
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean %q", value)
}

// parseAmount accepts "150.00" and the comma decimal form "150,00".
func parseAmount(value string) (float64, error) {
	if value == "" {
		return 0, errors.New("value is required")
	}
	if !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return amount, nil
}

func blankRecord(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// ExportBillingTable renders table in format and returns the payload with its
// content type.
func (c *Codec) ExportBillingTable(ctx context.Context, table domain.BillingTable, format string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		payload, err := billingCSV(table)
		return payload, "text/csv; charset=utf-8", err
	case FormatJSON:
		payload, err := json.Marshal(table)
		return payload, "application/json", err
	case FormatMsgpack:
		payload, err := billingMsgpack(table)
		return payload, "application/msgpack", err
	}
	return nil, "", fmt.Errorf("unsupported export format %q: %w", format, domain.ErrValidation)
}

func billingMsgpack(table domain.BillingTable) ([]byte, error) {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	encoder.SetCustomStructTag("json")
	if err := encoder.Encode(table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack reads a billing table written by ExportBillingTable.
func DecodeMsgpack(payload []byte) (domain.BillingTable, error) {
	var table domain.BillingTable
	decoder := msgpack.NewDecoder(bytes.NewReader(payload))
	decoder.SetCustomStructTag("json")
	if err := decoder.Decode(&table); err != nil {
		return domain.BillingTable{}, err
	}
	return table, nil
}

func billingCSV(table domain.BillingTable) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"pid", "name", "role", "level", "is_vacancy", "cost_hourly_rate", "selling_hourly_rate"}
	for _, week := range table.Weeks {
		header = append(header, fmt.Sprintf("week_%d (%s)", week.WeekNumber, week.WeekStart))
	}
	header = append(header, "total_hours", "total_cost", "total_selling")
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	available := []string{"", "available_hours", "", "", "", "", ""}
	for _, week := range table.Weeks {
		available = append(available, formatNumber(week.AvailableHours))
	}
	available = append(available, "", "", "")
	if err := writer.Write(available); err != nil {
		return nil, err
	}

	for _, row := range table.Rows {
		record := []string{
			row.PID,
			row.Name,
			row.Role,
			row.Level,
			strconv.FormatBool(row.IsVacancy),
			formatNumber(row.CostHourlyRate),
			formatNumber(row.SellingHourlyRate),
		}
		for _, hours := range row.Hours {
			record = append(record, formatNumber(hours))
		}
		record = append(record, formatNumber(row.TotalHours), formatNumber(row.TotalCost), formatNumber(row.TotalSelling))
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	summary := [][]string{
		{},
		{"total_cost", formatNumber(table.Summary.TotalCost)},
		{"total_selling", formatNumber(table.Summary.TotalSelling)},
		{"total_margin", formatNumber(table.Summary.TotalMargin)},
		{"total_tax", formatNumber(table.Summary.TotalTax)},
		{"final_price", formatNumber(table.Summary.FinalPrice)},
		{"final_margin_percent", formatNumber(table.Summary.FinalMarginPercent)},
	}
	if err := writer.WriteAll(summary); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
