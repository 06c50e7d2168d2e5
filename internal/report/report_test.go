package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func samplePolicy() models.Policy {
	return models.Policy{
		ID:               7,
		PolicyNumber:     "AUT-001",
		CoverageType:     "Autos",
		IssueDate:        d(2025, 1, 5),
		StartDate:        d(2025, 1, 10),
		EndDate:          d(2026, 1, 10),
		AnnualPremium:    decimal.RequireFromString("1200"),
		CommissionAmount: decimal.RequireFromString("120.5"),
		Status:           models.PolicyActive,
		PaymentFrequency: models.FrequencyMonthly,
		Client: &models.ClientSummary{
			FullName:       "José Núñez",
			DocumentType:   models.DocumentCC,
			DocumentNumber: "1020",
			Email:          strPtr("jose@example.com"),
			Phone:          "3001234567",
		},
		InsurerName: strPtr("Seguros; del Sur"),
	}
}

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM), "expected UTF-8 BOM")

	r := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):]))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV(t *testing.T) {
	collected := samplePolicy()
	collected.CommissionCollected = true

	noInsurerPolicy := samplePolicy()
	noInsurerPolicy.ID = 8
	noInsurerPolicy.InsurerName = nil
	noInsurerPolicy.Client.Email = nil
	noInsurerPolicy.Status = models.PolicyInProcess
	noInsurerPolicy.PaymentFrequency = models.FrequencyOneTime

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []models.Policy{collected, noInsurerPolicy}))

	records := readCSV(t, &buf)
	require.Len(t, records, 3, "header plus one row per policy")
	assert.Equal(t, csvHeader, records[0])

	row := records[1]
	assert.Equal(t, []string{
		"7", "AUT-001", "José Núñez", "Cédula de Ciudadanía-1020", "jose@example.com",
		"3001234567", "Seguros; del Sur", "Autos", "05/01/2025", "10/01/2025", "10/01/2026",
		"1200.00", "120.50", "Si", "Vigente", "Mensual",
	}, row)

	row = records[2]
	assert.Equal(t, "", row[4])
	assert.Equal(t, "N/A", row[6])
	assert.Equal(t, "No", row[13])
	assert.Equal(t, "En Trámite", row[14])
	assert.Equal(t, "Pago Único", row[15])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records := readCSV(t, &buf)
	assert.Len(t, records, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "reporte_polizas_2025-03-09.csv", Filename(d(2025, 3, 9)))
}

func TestSummarize(t *testing.T) {
	mk := func(issue time.Time, premium, commission string, collected bool, coverage string, insurer *string) models.Policy {
		return models.Policy{
			IssueDate:           issue,
			AnnualPremium:       decimal.RequireFromString(premium),
			CommissionAmount:    decimal.RequireFromString(commission),
			CommissionCollected: collected,
			CoverageType:        coverage,
			InsurerName:         insurer,
		}
	}

	sur := strPtr("Sur")
	norte := strPtr("Norte")

	period := []models.Policy{
		mk(d(2025, 3, 2), "100", "10", true, "Autos", sur),
		mk(d(2025, 3, 28), "50.50", "5", false, "Autos", sur),
		mk(d(2025, 1, 15), "200", "20", false, "Vida", norte),
		mk(d(2025, 2, 1), "0", "0", false, "Hogar", nil),
	}
	book := append([]models.Policy{mk(d(2024, 5, 1), "10", "1", true, "Vida", norte), mk(d(2024, 6, 1), "10", "1", true, "Hogar", nil)}, period...)

	s := Summarize(period, book)

	require.Len(t, s.MonthlyProduction, 2, "zero premium months are skipped")
	assert.Equal(t, d(2025, 1, 1), s.MonthlyProduction[0].Month)
	assert.Equal(t, "200", s.MonthlyProduction[0].Premium.String())
	assert.Equal(t, d(2025, 3, 1), s.MonthlyProduction[1].Month)
	assert.Equal(t, "150.5", s.MonthlyProduction[1].Premium.String())

	assert.Equal(t, "10", s.CommissionsCollected.String())
	assert.Equal(t, "25", s.CommissionsPending.String())
	assert.Equal(t, "350.5", s.TotalPremium.String())
	assert.Equal(t, 4, s.TotalPolicies)

	assert.Equal(t, []GroupCount{{"Autos", 2}, {"Hogar", 2}, {"Vida", 2}}, s.ByCoverage)
	assert.Equal(t, []GroupCount{{"N/A", 2}, {"Norte", 2}, {"Sur", 2}}, s.ByInsurer)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)

	assert.Empty(t, s.MonthlyProduction)
	assert.NotNil(t, s.MonthlyProduction)
	assert.True(t, s.TotalPremium.IsZero())
	assert.Empty(t, s.ByCoverage)
}
