package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kitchen-billing/internal/audit"
	billingapp "kitchen-billing/internal/billing/application"
	billing "kitchen-billing/internal/billing/domain"
)

const (
	monthlyPath      = "/api/v1/billing/monthly"
	exportPath       = monthlyPath + "/export"
	exportPathPrefix = exportPath + "."
)

// MonthlyHandler serves the monthly billing endpoints.
type MonthlyHandler struct {
	reporter    *billingapp.Reporter
	exportDir   string
	auditLogger audit.Logger
}

// NewMonthlyHandler constructs a handler. exportDir is where POSTed exports are written.
func NewMonthlyHandler(reporter *billingapp.Reporter, exportDir string, auditLogger audit.Logger) (*MonthlyHandler, error) {
	if reporter == nil {
		return nil, errors.New("monthly handler: nil reporter")
	}
	return &MonthlyHandler{reporter: reporter, exportDir: exportDir, auditLogger: auditLogger}, nil
}

type rowDTO struct {
	PersonID          int64           `json:"person_id"`
	Name              string          `json:"name"`
	Address           string          `json:"address"`
	Category          string          `json:"category"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	Quantity          int             `json:"quantity"`
	DeliveryCount     int             `json:"delivery_count"`
	DeliverySurcharge decimal.Decimal `json:"delivery_surcharge"`
	AdditionalCharges decimal.Decimal `json:"additional_charges"`
	Total             decimal.Decimal `json:"total"`
}

type totalsDTO struct {
	Rows              int             `json:"rows"`
	Quantity          int             `json:"quantity"`
	Deliveries        int             `json:"deliveries"`
	MealAmount        decimal.Decimal `json:"meal_amount"`
	DeliveryAmount    decimal.Decimal `json:"delivery_amount"`
	AdditionalCharges decimal.Decimal `json:"additional_charges"`
	Total             decimal.Decimal `json:"total"`
}

type sectionDTO struct {
	Category string    `json:"category"`
	Title    string    `json:"title"`
	Totals   totalsDTO `json:"totals"`
}

type monthlyResponse struct {
	Year     int          `json:"year"`
	Month    int          `json:"month"`
	Title    string       `json:"title"`
	Rows     []rowDTO     `json:"rows"`
	Sections []sectionDTO `json:"sections"`
	Totals   totalsDTO    `json:"totals"`
}

func toTotalsDTO(t billing.Totals) totalsDTO {
	return totalsDTO{
		Rows:              t.Rows,
		Quantity:          t.Quantity,
		Deliveries:        t.Deliveries,
		MealAmount:        billing.RoundMoney(t.MealAmount),
		DeliveryAmount:    billing.RoundMoney(t.DeliveryAmount),
		AdditionalCharges: billing.RoundMoney(t.AdditionalCharges),
		Total:             billing.RoundMoney(t.Total),
	}
}

// ServeHTTP routes monthly billing requests.
func (h *MonthlyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == monthlyPath && r.Method == http.MethodGet:
		h.handleMonthly(w, r)
	case path == exportPath && r.Method == http.MethodPost:
		h.handleExportToDisk(w, r)
	case strings.HasPrefix(path, exportPathPrefix) && r.Method == http.MethodGet:
		h.handleExportStream(w, r, strings.TrimPrefix(path, exportPathPrefix))
	case path == monthlyPath || path == exportPath || strings.HasPrefix(path, exportPathPrefix):
		w.WriteHeader(http.StatusMethodNotAllowed)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *MonthlyHandler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parsePeriodQuery(w, r)
	if !ok {
		return
	}
	report, err := h.reporter.Report(r.Context(), year, month)
	if err != nil {
		respondBillingError(w, err)
		return
	}
	resp := monthlyResponse{
		Year:     year,
		Month:    month,
		Title:    report.Title(),
		Rows:     []rowDTO{},
		Sections: []sectionDTO{},
		Totals:   toTotalsDTO(report.Totals),
	}
	for _, section := range report.Sections {
		resp.Sections = append(resp.Sections, sectionDTO{
			Category: string(section.Category),
			Title:    section.Title,
			Totals:   toTotalsDTO(section.Totals),
		})
		for _, row := range section.Rows {
			resp.Rows = append(resp.Rows, rowDTO{
				PersonID:          row.PersonID,
				Name:              row.Name,
				Address:           row.Address,
				Category:          string(row.Category),
				UnitPrice:         row.UnitPrice,
				Quantity:          row.Quantity,
				DeliveryCount:     row.DeliveryCount,
				DeliverySurcharge: row.DeliverySurcharge,
				AdditionalCharges: row.AdditionalCharges,
				Total:             row.Total,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MonthlyHandler) handleExportStream(w http.ResponseWriter, r *http.Request, format string) {
	renderer, err := h.reporter.Renderer(format)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	year, month, ok := parsePeriodQuery(w, r)
	if !ok {
		return
	}
	period, _ := billing.NewPeriod(year, month)
	fileName := billingapp.DefaultFileName(period, renderer.Format())

	var buf bytes.Buffer
	if _, err := h.reporter.ExportMonthly(r.Context(), year, month, renderer.Format(), billingapp.WriterDestination{Label: fileName, Writer: &buf}); err != nil {
		respondBillingError(w, err)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
	audit.LogRequest(h.auditLogger, r, "billing.export", "billing_month", period.String(), period.String(), map[string]any{
		"format": renderer.Format(),
	})
}

type exportRequest struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Format   string `json:"format"`
	FileName string `json:"file_name"`
}

func (h *MonthlyHandler) handleExportToDisk(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(h.exportDir) == "" {
		http.Error(w, "export directory not configured", http.StatusServiceUnavailable)
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	period, err := billing.NewPeriod(req.Year, req.Month)
	if err != nil {
		respondBillingError(w, err)
		return
	}
	if req.Format == "" {
		req.Format = FormatPDF
	}
	renderer, err := h.reporter.Renderer(req.Format)
	if err != nil {
		respondBillingError(w, err)
		return
	}
	name := billingapp.DefaultFileName(period, renderer.Format())
	if strings.TrimSpace(req.FileName) != "" {
		name, err = billingapp.SafeFileName(req.FileName, renderer.Format())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	dest := billingapp.FileDestination{Path: filepath.Join(h.exportDir, name)}
	path, err := h.reporter.ExportMonthly(r.Context(), req.Year, req.Month, renderer.Format(), dest)
	if err != nil {
		respondBillingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"path":   path,
		"format": renderer.Format(),
		"period": period.String(),
	})
	audit.LogRequest(h.auditLogger, r, "billing.export_file", "billing_month", period.String(), period.String(), map[string]any{
		"format": renderer.Format(),
		"path":   path,
	})
}

func parsePeriodQuery(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	query := r.URL.Query()
	year, err := strconv.Atoi(strings.TrimSpace(query.Get("year")))
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return 0, 0, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(query.Get("month")))
	if err != nil {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return 0, 0, false
	}
	if _, err := billing.NewPeriod(year, month); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return year, month, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondBillingError(w http.ResponseWriter, err error) {
	var exportErr *billingapp.ExportError
	switch {
	case errors.Is(err, billing.ErrInvalidPeriod), errors.Is(err, billingapp.ErrUnsupportedFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, billing.ErrDataIntegrity):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &exportErr):
		switch exportErr.Kind {
		case billingapp.ExportErrorPermission:
			http.Error(w, exportErr.Message(), http.StatusForbidden)
		case billingapp.ExportErrorNotFound:
			http.Error(w, exportErr.Message(), http.StatusNotFound)
		default:
			http.Error(w, exportErr.Message(), http.StatusInternalServerError)
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
