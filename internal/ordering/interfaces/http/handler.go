package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kitchen-billing/internal/audit"
	orderingapp "kitchen-billing/internal/ordering/application"
	ordering "kitchen-billing/internal/ordering/domain"
)

const (
	ordersPath  = "/api/v1/orders"
	chargesPath = "/api/v1/charges"

	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Handler serves order capture and additional charge endpoints.
type Handler struct {
	capture     *orderingapp.CaptureService
	charges     *orderingapp.ChargeService
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(capture *orderingapp.CaptureService, charges *orderingapp.ChargeService, auditLogger audit.Logger) (*Handler, error) {
	if capture == nil {
		return nil, errors.New("ordering handler: nil capture service")
	}
	if charges == nil {
		return nil, errors.New("ordering handler: nil charge service")
	}
	return &Handler{capture: capture, charges: charges, auditLogger: auditLogger}, nil
}

type sheetEntryDTO struct {
	PersonID int64  `json:"person_id"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"quantity"`
	Delivery bool   `json:"delivery"`
	Saved    bool   `json:"saved"`
}

type sheetResponse struct {
	Date    string          `json:"date"`
	Entries []sheetEntryDTO `json:"entries"`
}

type saveRequest struct {
	Date    string          `json:"date"`
	Entries []sheetEntryDTO `json:"entries"`
}

type chargeDTO struct {
	ID          int64           `json:"id"`
	PersonID    int64           `json:"person_id"`
	Month       string          `json:"month"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

func toChargeDTO(c ordering.AdditionalCharge) chargeDTO {
	return chargeDTO{
		ID:          c.ID,
		PersonID:    c.PersonID,
		Month:       c.Month.Format(monthLayout),
		Description: c.Description,
		UnitPrice:   c.UnitPrice,
		Quantity:    c.Quantity,
		Amount:      c.Amount(),
	}
}

func (d chargeDTO) toCharge() (ordering.AdditionalCharge, error) {
	month, err := time.Parse(monthLayout, strings.TrimSpace(d.Month))
	if err != nil {
		return ordering.AdditionalCharge{}, ordering.ErrInvalidMonth
	}
	return ordering.AdditionalCharge{
		ID:          d.ID,
		PersonID:    d.PersonID,
		Month:       month,
		Description: strings.TrimSpace(d.Description),
		UnitPrice:   d.UnitPrice,
		Quantity:    d.Quantity,
	}, nil
}

// ServeHTTP routes order and charge requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == ordersPath:
		switch r.Method {
		case http.MethodGet:
			h.handleSheet(w, r)
		case http.MethodPut:
			h.handleSave(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case path == chargesPath:
		switch r.Method {
		case http.MethodGet:
			h.handleListCharges(w, r)
		case http.MethodPost:
			h.handleCreateCharge(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(path, chargesPath+"/"):
		id, err := strconv.ParseInt(strings.TrimPrefix(path, chargesPath+"/"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid charge id", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGetCharge(w, r, id)
		case http.MethodPut:
			h.handleUpdateCharge(w, r, id)
		case http.MethodDelete:
			h.handleDeleteCharge(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleSheet(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	sheet, err := h.capture.Sheet(r.Context(), date)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := sheetResponse{Date: date.Format(dateLayout), Entries: make([]sheetEntryDTO, 0, len(sheet))}
	for _, entry := range sheet {
		resp.Entries = append(resp.Entries, sheetEntryDTO{
			PersonID: entry.PersonID,
			Name:     entry.Name,
			Category: string(entry.Category),
			Quantity: entry.Quantity,
			Delivery: entry.Delivery,
			Saved:    entry.Saved,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	entries := make([]orderingapp.CaptureEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, orderingapp.CaptureEntry{
			PersonID: entry.PersonID,
			Quantity: entry.Quantity,
			Delivery: entry.Delivery,
		})
	}
	if err := h.capture.Save(r.Context(), date, entries); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	audit.LogRequest(h.auditLogger, r, "orders.save", "order_day", date.Format(dateLayout), date.Format(monthLayout), map[string]any{
		"entries": len(entries),
	})
}

func (h *Handler) handleListCharges(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		charges []ordering.AdditionalCharge
		err     error
	)
	switch {
	case query.Get("person_id") != "":
		personID, parseErr := strconv.ParseInt(query.Get("person_id"), 10, 64)
		if parseErr != nil || personID <= 0 {
			http.Error(w, "invalid person_id", http.StatusBadRequest)
			return
		}
		charges, err = h.charges.ListForPerson(r.Context(), personID)
	case query.Get("month") != "":
		month, parseErr := time.Parse(monthLayout, query.Get("month"))
		if parseErr != nil {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		charges, err = h.charges.ListForMonth(r.Context(), month)
	default:
		http.Error(w, "person_id or month required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]chargeDTO, 0, len(charges))
	for _, charge := range charges {
		resp = append(resp, toChargeDTO(charge))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCharge(w http.ResponseWriter, r *http.Request, id int64) {
	charge, err := h.charges.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChargeDTO(*charge))
}

func (h *Handler) handleCreateCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	charge, err := req.toCharge()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	created, err := h.charges.Create(r.Context(), charge)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toChargeDTO(*created))
	audit.LogRequest(h.auditLogger, r, "charge.create", "charge", strconv.FormatInt(created.ID, 10), created.Month.Format(monthLayout), map[string]any{
		"person_id": created.PersonID,
		"amount":    created.Amount().StringFixed(2),
	})
}

func (h *Handler) handleUpdateCharge(w http.ResponseWriter, r *http.Request, id int64) {
	var req chargeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.ID = id
	charge, err := req.toCharge()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	updated, err := h.charges.Update(r.Context(), charge)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChargeDTO(*updated))
	audit.LogRequest(h.auditLogger, r, "charge.update", "charge", strconv.FormatInt(id, 10), updated.Month.Format(monthLayout), nil)
}

func (h *Handler) handleDeleteCharge(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.charges.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	audit.LogRequest(h.auditLogger, r, "charge.delete", "charge", strconv.FormatInt(id, 10), "", nil)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ordering.ErrChargeNotFound):
		http.Error(w, "charge not found", http.StatusNotFound)
	case errors.Is(err, ordering.ErrUnknownPerson):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ordering.ErrInvalidDate),
		errors.Is(err, ordering.ErrInvalidMonth),
		errors.Is(err, ordering.ErrEmptyPersonID),
		errors.Is(err, ordering.ErrNegativeQuantity),
		errors.Is(err, ordering.ErrNegativePrice),
		errors.Is(err, ordering.ErrEmptyDescription),
		errors.Is(err, ordering.ErrDescriptionTooLong),
		errors.Is(err, ordering.ErrDateMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
