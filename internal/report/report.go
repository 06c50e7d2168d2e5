// Package report builds the agency production summary and the policy CSV
// export from already loaded policies.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
)

const (
	csvDateLayout = "02/01/2006"
	noInsurer     = "N/A"
)

// utf8BOM makes spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{
	"ID Poliza",
	"Nro. Poliza",
	"Cliente",
	"Documento Cliente",
	"Email Cliente",
	"Telefono Cliente",
	"Aseguradora",
	"Ramo",
	"Fecha Emision",
	"Fecha Inicio Vigencia",
	"Fecha Fin Vigencia",
	"Prima Total Anual",
	"Monto Comision",
	"Comision Cobrada",
	"Estado de la Poliza",
	"Frecuencia de Pago",
}

// Filename returns the export file name for the given day.
func Filename(day time.Time) string {
	return fmt.Sprintf("reporte_polizas_%s.csv", day.Format("2006-01-02"))
}

// WriteCSV writes one row per policy, in the given order. Policies must
// carry the joined client summary.
func WriteCSV(w io.Writer, policies []models.Policy) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range policies {
		if err := cw.Write(csvRow(&policies[i])); err != nil {
			return fmt.Errorf("failed to write CSV row for policy %d: %w", policies[i].ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func csvRow(p *models.Policy) []string {
	var client models.ClientSummary
	if p.Client != nil {
		client = *p.Client
	}

	email := ""
	if client.Email != nil {
		email = *client.Email
	}
	insurer := noInsurer
	if p.InsurerName != nil {
		insurer = *p.InsurerName
	}
	collected := "No"
	if p.CommissionCollected {
		collected = "Si"
	}

	return []string{
		fmt.Sprint(p.ID),
		p.PolicyNumber,
		client.FullName,
		client.DocumentType.Label() + "-" + client.DocumentNumber,
		email,
		client.Phone,
		insurer,
		p.CoverageType,
		p.IssueDate.Format(csvDateLayout),
		p.StartDate.Format(csvDateLayout),
		p.EndDate.Format(csvDateLayout),
		p.AnnualPremium.StringFixed(2),
		p.CommissionAmount.StringFixed(2),
		collected,
		p.Status.Label(),
		p.PaymentFrequency.Label(),
	}
}

// MonthTotal is the premium written in one issue month.
type MonthTotal struct {
	Month   time.Time
	Premium decimal.Decimal
}

// GroupCount is the number of policies sharing a coverage type or insurer.
type GroupCount struct {
	Name  string
	Count int
}

// Summary is the agency production report.
type Summary struct {
	// MonthlyProduction, CommissionsCollected, CommissionsPending,
	// TotalPremium and TotalPolicies cover the period selection only.
	MonthlyProduction    []MonthTotal
	CommissionsCollected decimal.Decimal
	CommissionsPending   decimal.Decimal
	TotalPremium         decimal.Decimal
	TotalPolicies        int
	// ByCoverage and ByInsurer cover the whole book.
	ByCoverage []GroupCount
	ByInsurer  []GroupCount
}

// Summarize aggregates the period's policies and the agent's whole book.
func Summarize(period, book []models.Policy) Summary {
	s := Summary{
		MonthlyProduction:    []MonthTotal{},
		CommissionsCollected: decimal.Zero,
		CommissionsPending:   decimal.Zero,
		TotalPremium:         decimal.Zero,
		TotalPolicies:        len(period),
	}

	months := map[time.Time]decimal.Decimal{}
	for _, p := range period {
		s.TotalPremium = s.TotalPremium.Add(p.AnnualPremium)
		if p.CommissionCollected {
			s.CommissionsCollected = s.CommissionsCollected.Add(p.CommissionAmount)
		} else {
			s.CommissionsPending = s.CommissionsPending.Add(p.CommissionAmount)
		}

		if p.AnnualPremium.IsPositive() {
			month := time.Date(p.IssueDate.Year(), p.IssueDate.Month(), 1, 0, 0, 0, 0, time.UTC)
			months[month] = months[month].Add(p.AnnualPremium)
		}
	}
	for month, total := range months {
		s.MonthlyProduction = append(s.MonthlyProduction, MonthTotal{Month: month, Premium: total})
	}
	slices.SortFunc(s.MonthlyProduction, func(a, b MonthTotal) int { return a.Month.Compare(b.Month) })

	s.ByCoverage = countBy(book, func(p *models.Policy) string { return p.CoverageType })
	s.ByInsurer = countBy(book, func(p *models.Policy) string {
		if p.InsurerName == nil {
			return noInsurer
		}
		return *p.InsurerName
	})
	return s
}

// countBy groups policies by key, largest group first, ties by name.
func countBy(policies []models.Policy, key func(*models.Policy) string) []GroupCount {
	counts := map[string]int{}
	for i := range policies {
		counts[key(&policies[i])]++
	}

	groups := make([]GroupCount, 0, len(counts))
	for name, n := range counts {
		groups = append(groups, GroupCount{Name: name, Count: n})
	}
	slices.SortFunc(groups, func(a, b GroupCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	return groups
}
