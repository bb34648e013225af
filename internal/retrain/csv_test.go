package retrain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preppal/backend/internal/contracts"
)

const csvHeader = "business_type,item_name,date,price,shelf_life_hours," +
	"quantity_available,quantity_sold,customer_demand,waste_quantity," +
	"weather_condition,holiday_flag"

func TestParseCSV(t *testing.T) {
	in := csvHeader + "\n" +
		"Cafe,Croissant,2026-03-02,45,24,40,35,37,5,Clear,0\n" +
		"Cafe,Latte,2026-03-02,30,1,100,90,95,10,Rainy,1\n"

	records, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 2)

	r := records[0]
	assert.Equal(t, "Croissant", r.ItemName)
	assert.Equal(t, contracts.BusinessCafe, r.BusinessType)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 45.0, r.Price)
	assert.Equal(t, 35.0, r.QuantitySold)
	assert.Equal(t, 5.0, r.WasteQuantity)
	assert.Equal(t, contracts.WeatherClear, r.Weather)
	assert.Equal(t, 0, r.HolidayFlag)

	assert.Equal(t, contracts.WeatherRainy, records[1].Weather)
	assert.Equal(t, 1, records[1].HolidayFlag)
}

func TestParseCSV_ColumnOrderFree(t *testing.T) {
	in := "quantity_sold,date,item_name\n" +
		"12,2026-03-02,Croissant\n"

	records, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 12.0, records[0].QuantitySold)
	assert.Zero(t, records[0].Price, "absent optional columns default to zero")
}

func TestParseCSV_MissingRequiredColumns(t *testing.T) {
	in := "business_type,price\nCafe,45\n"

	_, err := ParseCSV(strings.NewReader(in))
	require.Error(t, err)

	var sv *contracts.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	require.Len(t, sv.Violations, 1)
	assert.Contains(t, sv.Violations[0], "missing required columns")
	assert.Contains(t, sv.Violations[0], "date")
	assert.Contains(t, sv.Violations[0], "item_name")
	assert.Contains(t, sv.Violations[0], "quantity_sold")
}

func TestParseCSV_ItemizedLineViolations(t *testing.T) {
	in := "date,item_name,quantity_sold\n" +
		"03/02/2026,Croissant,10\n" +
		"2026-03-03,Croissant,lots\n"

	_, err := ParseCSV(strings.NewReader(in))
	require.Error(t, err)

	var sv *contracts.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	require.Len(t, sv.Violations, 2)
	assert.Equal(t, "line 2: date has invalid format, use YYYY-MM-DD", sv.Violations[0])
	assert.Contains(t, sv.Violations[1], "line 3: quantity_sold is not numeric")
}

func TestValidateUpload(t *testing.T) {
	clean := []contracts.SalesRecord{
		{QuantitySold: 10, QuantityAvailable: 12},
		{QuantitySold: 0, QuantityAvailable: 0},
	}
	assert.NoError(t, ValidateUpload(clean))

	err := ValidateUpload(nil)
	var sv *contracts.SchemaViolationError
	require.ErrorAs(t, err, &sv)
	assert.Equal(t, []string{"upload contains no rows"}, sv.Violations)

	bad := []contracts.SalesRecord{
		{QuantitySold: -3, QuantityAvailable: 10},
		{QuantitySold: -1, QuantityAvailable: 10},
		{QuantitySold: 15, QuantityAvailable: 10},
	}
	err = ValidateUpload(bad)
	require.ErrorAs(t, err, &sv)
	require.Len(t, sv.Violations, 2)
	assert.Equal(t, "found 2 negative quantity_sold value(s)", sv.Violations[0])
	assert.Equal(t, "1 row(s) have quantity_sold > quantity_available", sv.Violations[1])
}

func auditRecord(day int, item string, demand float64) contracts.SalesRecord {
	available := demand + 5
	sold := demand - 2
	return contracts.SalesRecord{
		Date:              time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		ItemName:          item,
		BusinessType:      contracts.BusinessCafe,
		Price:             45,
		ShelfLifeHours:    24,
		QuantityAvailable: available,
		QuantitySold:      sold,
		CustomerDemand:    demand,
		WasteQuantity:     available - sold,
		Weather:           contracts.WeatherClear,
	}
}

func TestValidateDataset_Clean(t *testing.T) {
	var records []contracts.SalesRecord
	for day := 0; day < 10; day++ {
		records = append(records, auditRecord(day, "Croissant", 30))
		records = append(records, auditRecord(day, "Latte", 80))
	}

	report := ValidateDataset(records)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Warnings, "two items over ten continuous days")
	assert.Equal(t, 20, report.Rows)
	assert.Equal(t, "2026-03-01", report.From)
	assert.Equal(t, "2026-03-10", report.To)
}

func TestValidateDataset_Issues(t *testing.T) {
	records := []contracts.SalesRecord{
		auditRecord(0, "Croissant", 30),
		auditRecord(1, "Croissant", 30),
	}
	records[1].QuantitySold = records[1].QuantityAvailable + 10 // oversold + waste identity broken
	records[1].Price = 0
	records[1].Weather = "Snowy"
	records[1].HolidayFlag = 3

	report := ValidateDataset(records)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Issues, "1 rows: quantity_sold > quantity_available")
	assert.Contains(t, report.Issues, "1 rows: quantity_sold > customer_demand")
	assert.Contains(t, report.Issues, "1 rows: incorrect waste calculation")
	assert.Contains(t, report.Issues, "1 rows: price must be positive")
	assert.Contains(t, report.Issues, "1 rows: invalid weather values")
	assert.Contains(t, report.Issues, "1 rows: holiday_flag must be 0 or 1")
}

func TestValidateDataset_DuplicatesAndGaps(t *testing.T) {
	records := []contracts.SalesRecord{
		auditRecord(0, "Croissant", 30),
		auditRecord(0, "Croissant", 32), // duplicate (date, item)
		auditRecord(4, "Croissant", 30), // 3-day gap
	}

	report := ValidateDataset(records)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Issues, "2 duplicate date-item combinations")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "expected 5 rows for a continuous range, found 3", report.Warnings[0])
}

func TestValidateDataset_Empty(t *testing.T) {
	report := ValidateDataset(nil)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"dataset is empty"}, report.Issues)
}
