package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/brokerdesk/api/internal/middleware"
	"github.com/stwalsh4118/brokerdesk/api/internal/models"
	"github.com/stwalsh4118/brokerdesk/api/internal/report"
	"github.com/stwalsh4118/brokerdesk/api/internal/services"
)

// ReportHandler serves the production summary and the CSV export.
type ReportHandler struct {
	service services.ReportService
	now     func() time.Time
}

// NewReportHandler creates a new ReportHandler instance.
func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{service: service, now: time.Now}
}

// PeriodQuery bounds a report by issue date, both ends inclusive.
type PeriodQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// MonthTotalData is the premium written in one month.
type MonthTotalData struct {
	Premium decimal.Decimal `json:"premium"`
	Month   string          `json:"month"`
}

// GroupCountData is a portfolio group.
type GroupCountData struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SummaryResponse is the production report.
type SummaryResponse struct {
	MonthlyProduction    []MonthTotalData `json:"monthly_production"`
	ByCoverage           []GroupCountData `json:"by_coverage"`
	ByInsurer            []GroupCountData `json:"by_insurer"`
	CommissionsCollected decimal.Decimal  `json:"commissions_collected"`
	CommissionsPending   decimal.Decimal  `json:"commissions_pending"`
	TotalPremium         decimal.Decimal  `json:"total_premium"`
	TotalPolicies        int              `json:"total_policies"`
}

func (q *PeriodQuery) period(c *gin.Context) (services.Period, bool) {
	from, ok := parseOptionalDate(c, "from", &q.From)
	if !ok {
		return services.Period{}, false
	}
	to, ok := parseOptionalDate(c, "to", &q.To)
	if !ok {
		return services.Period{}, false
	}
	return services.Period{From: from, To: to}, true
}

func (h *ReportHandler) bindPeriod(c *gin.Context) (services.Period, bool) {
	var q PeriodQuery
	if !bindQuery(c, &q) {
		return services.Period{}, false
	}
	return q.period(c)
}

// Summary handles GET /api/v1/reports/summary.
func (h *ReportHandler) Summary(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), agent, period)
	if err != nil {
		respondError(c, err, "Failed to build report")
		return
	}
	c.JSON(http.StatusOK, mapSummaryToDTO(&summary))
}

// PoliciesCSV handles GET /api/v1/reports/policies.csv.
func (h *ReportHandler) PoliciesCSV(c *gin.Context) {
	agent, ok := requireAgent(c)
	if !ok {
		return
	}
	period, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	policies, err := h.service.Policies(c.Request.Context(), agent, period)
	if err != nil {
		respondError(c, err, "Failed to export policies")
		return
	}

	// Buffered so a write failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, policies); err != nil {
		respondError(c, err, "Failed to export policies")
		return
	}

	filename := report.Filename(models.DateOf(h.now()))
	if log := middleware.GetLogger(c); log != nil {
		log.Info("Policy export generated", map[string]interface{}{
			"rows":     len(policies),
			"filename": filename,
		})
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func mapSummaryToDTO(s *report.Summary) SummaryResponse {
	groups := func(in []report.GroupCount) []GroupCountData {
		out := make([]GroupCountData, 0, len(in))
		for _, g := range in {
			out = append(out, GroupCountData{Name: g.Name, Count: g.Count})
		}
		return out
	}

	months := make([]MonthTotalData, 0, len(s.MonthlyProduction))
	for _, m := range s.MonthlyProduction {
		months = append(months, MonthTotalData{Month: m.Month.Format("2006-01"), Premium: m.Premium})
	}

	return SummaryResponse{
		MonthlyProduction:    months,
		ByCoverage:           groups(s.ByCoverage),
		ByInsurer:            groups(s.ByInsurer),
		CommissionsCollected: s.CommissionsCollected,
		CommissionsPending:   s.CommissionsPending,
		TotalPremium:         s.TotalPremium,
		TotalPolicies:        s.TotalPolicies,
	}
}
