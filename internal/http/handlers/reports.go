package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/synterhq/synter-api/internal/models"
	"github.com/synterhq/synter-api/internal/service"
)

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	reportSvc *service.ReportService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(reportSvc *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reportSvc: reportSvc}
}

// ReportOutput represents a report in API responses.
type ReportOutput struct {
	ID               string  `json:"id" doc:"Report ID"`
	ReportType       string  `json:"report_type" doc:"Report type"`
	Title            string  `json:"title" doc:"Report title"`
	Summary          string  `json:"summary,omitempty" doc:"One-paragraph summary"`
	Status           string  `json:"status" doc:"generating, ready or failed"`
	OverallScore     *int    `json:"overall_score,omitempty" doc:"Score 0-100, present when ready"`
	Confidence       string  `json:"confidence,omitempty" doc:"LOW, MEDIUM or HIGH"`
	WebsiteID        *string `json:"website_id,omitempty" doc:"Website scope for tracking reports"`
	CreditCost       int     `json:"credit_cost" doc:"Credits charged for this report"`
	GenerationTimeMs int64   `json:"generation_time_ms" doc:"Generation duration in milliseconds"`
	CreatedAt        string  `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt        string  `json:"updated_at" doc:"Last update timestamp"`
}

// ReportDetailOutput is ReportOutput plus the full engine payload.
type ReportDetailOutput struct {
	ReportOutput
	Data string `json:"data,omitempty" doc:"Full scoring payload as JSON"`
}

func reportToOutput(r *models.Report) ReportOutput {
	return ReportOutput{
		ID:               r.ID,
		ReportType:       string(r.ReportType),
		Title:            r.Title,
		Summary:          r.Summary,
		Status:           string(r.Status),
		OverallScore:     r.OverallScore,
		Confidence:       string(r.Confidence),
		WebsiteID:        r.WebsiteID,
		CreditCost:       r.CreditCost,
		GenerationTimeMs: r.GenerationTimeMs,
		CreatedAt:        r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:        r.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// GenerateReportInput represents a report generation request.
type GenerateReportInput struct {
	Body struct {
		ReportType string   `json:"report_type" doc:"TRACKING_READINESS, SPEND_BASELINE or COMPETITOR_SNAPSHOT"`
		URL        string   `json:"url,omitempty" doc:"Website URL (tracking readiness)"`
		AccountIDs []string `json:"account_ids,omitempty" doc:"Ad account IDs (spend baseline, empty = all active)"`
		Days       int      `json:"days,omitempty" doc:"Lookback window in days (spend baseline)"`
		Domain     string   `json:"domain,omitempty" doc:"Competitor domain (competitor snapshot)"`
	}
}

// GenerateReportOutput represents a report generation response.
type GenerateReportOutput struct {
	Status int
	Body   ReportOutput
}

// GenerateReport starts report generation, or returns an existing report
// for the same inputs.
func (h *ReportsHandler) GenerateReport(ctx context.Context, input *GenerateReportInput) (*GenerateReportOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	report, err := h.reportSvc.Generate(ctx, workspaceID, service.ReportRequest{
		Type:       models.ReportType(input.Body.ReportType),
		URL:        input.Body.URL,
		AccountIDs: input.Body.AccountIDs,
		Days:       input.Body.Days,
		Domain:     input.Body.Domain,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReportType):
			return nil, huma.Error400BadRequest("invalid report type: " + input.Body.ReportType)
		case errors.Is(err, service.ErrInvalidInput):
			return nil, huma.Error422UnprocessableEntity(err.Error())
		case errors.Is(err, service.ErrInsufficientCredits):
			return nil, huma.NewError(http.StatusPaymentRequired, "insufficient report credits")
		case errors.Is(err, service.ErrMonthlyLimitReached):
			return nil, huma.NewError(http.StatusPaymentRequired, "monthly report limit reached")
		default:
			return nil, huma.Error500InternalServerError("failed to generate report: " + err.Error())
		}
	}

	status := http.StatusAccepted
	if report.IsTerminal() {
		status = http.StatusOK
	}
	return &GenerateReportOutput{Status: status, Body: reportToOutput(report)}, nil
}

// ListReportsInput represents list reports request.
type ListReportsInput struct {
	Limit  int `query:"limit" doc:"Max reports to return (default 50, max 100)"`
	Offset int `query:"offset" doc:"Pagination offset"`
}

// ListReportsOutput represents list reports response.
type ListReportsOutput struct {
	Body struct {
		Reports []ReportOutput `json:"reports" doc:"Reports, newest first"`
	}
}

// ListReports returns the workspace's reports, newest first.
func (h *ReportsHandler) ListReports(ctx context.Context, input *ListReportsInput) (*ListReportsOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reports, err := h.reportSvc.List(ctx, workspaceID, input.Limit, input.Offset)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list reports: " + err.Error())
	}

	output := &ListReportsOutput{}
	output.Body.Reports = make([]ReportOutput, 0, len(reports))
	for _, r := range reports {
		output.Body.Reports = append(output.Body.Reports, reportToOutput(r))
	}
	return output, nil
}

// GetReportInput represents get report request.
type GetReportInput struct {
	ID string `path:"id" doc:"Report ID"`
}

// GetReportOutput represents get report response.
type GetReportOutput struct {
	Body ReportDetailOutput
}

// GetReport retrieves a single report with its full payload.
func (h *ReportsHandler) GetReport(ctx context.Context, input *GetReportInput) (*GetReportOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	report, err := h.reportSvc.GetByID(ctx, workspaceID, input.ID)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			return nil, huma.Error404NotFound("report not found")
		}
		return nil, huma.Error500InternalServerError("failed to get report: " + err.Error())
	}

	return &GetReportOutput{Body: ReportDetailOutput{
		ReportOutput: reportToOutput(report),
		Data:         report.DataJSON,
	}}, nil
}

// DeleteReportInput represents delete report request.
type DeleteReportInput struct {
	ID string `path:"id" doc:"Report ID"`
}

// DeleteReportOutput represents delete report response.
type DeleteReportOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// DeleteReport removes a report.
func (h *ReportsHandler) DeleteReport(ctx context.Context, input *DeleteReportInput) (*DeleteReportOutput, error) {
	workspaceID := getWorkspaceID(ctx)
	if workspaceID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.reportSvc.Delete(ctx, workspaceID, input.ID); err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			return nil, huma.Error404NotFound("report not found")
		}
		return nil, huma.Error500InternalServerError("failed to delete report: " + err.Error())
	}

	output := &DeleteReportOutput{}
	output.Body.Message = "report deleted"
	return output, nil
}

// ServeReportHTML serves the rendered report document. This is a raw
// HTTP handler because the response is text/html, not JSON.
func (h *ReportsHandler) ServeReportHTML(w http.ResponseWriter, r *http.Request) {
	workspaceID := getWorkspaceID(r.Context())
	if workspaceID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	report, err := h.reportSvc.GetByID(r.Context(), workspaceID, id)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to get report", http.StatusInternalServerError)
		return
	}
	if report.Status != models.ReportStatusReady || report.HTMLContent == "" {
		http.Error(w, "report not ready", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(report.HTMLContent))
}
