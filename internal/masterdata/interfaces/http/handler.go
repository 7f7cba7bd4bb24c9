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
	masterdataapp "kitchen-billing/internal/masterdata/application"
	masterdata "kitchen-billing/internal/masterdata/domain"
)

const basePath = "/api/v1/persons"

// Handler serves person endpoints.
type Handler struct {
	service     *masterdataapp.PersonService
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *masterdataapp.PersonService, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("person handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

type personDTO struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	Street              string           `json:"street"`
	HouseNumber         string           `json:"house_number"`
	Zip                 string           `json:"zip"`
	City                string           `json:"city"`
	Contact             string           `json:"contact"`
	Category            string           `json:"category"`
	DefaultDelivery     bool             `json:"default_delivery"`
	MealPriceOverride   *decimal.Decimal `json:"meal_price_override,omitempty"`
	DefaultMealQuantity int              `json:"default_meal_quantity"`
	Address             string           `json:"address,omitempty"`
	CreatedAt           *time.Time       `json:"created_at,omitempty"`
	UpdatedAt           *time.Time       `json:"updated_at,omitempty"`
}

func toDTO(p masterdata.Person) personDTO {
	dto := personDTO{
		ID:                  p.ID,
		Name:                p.Name,
		Street:              p.Street,
		HouseNumber:         p.HouseNumber,
		Zip:                 p.Zip,
		City:                p.City,
		Contact:             p.Contact,
		Category:            string(p.Category),
		DefaultDelivery:     p.DefaultDelivery,
		MealPriceOverride:   p.MealPriceOverride,
		DefaultMealQuantity: p.DefaultMealQuantity,
		Address:             p.Address(),
	}
	if !p.CreatedAt.IsZero() {
		created := p.CreatedAt
		dto.CreatedAt = &created
	}
	if !p.UpdatedAt.IsZero() {
		updated := p.UpdatedAt
		dto.UpdatedAt = &updated
	}
	return dto
}

func (d personDTO) toPerson() masterdata.Person {
	return masterdata.Person{
		ID:                  d.ID,
		Name:                strings.TrimSpace(d.Name),
		Street:              d.Street,
		HouseNumber:         d.HouseNumber,
		Zip:                 d.Zip,
		City:                d.City,
		Contact:             d.Contact,
		Category:            masterdata.Category(d.Category),
		DefaultDelivery:     d.DefaultDelivery,
		MealPriceOverride:   d.MealPriceOverride,
		DefaultMealQuantity: d.DefaultMealQuantity,
	}
}

// ServeHTTP routes person requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == basePath {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
			return
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(path, basePath+"/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(path, basePath+"/"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid person id", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	persons, err := h.service.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]personDTO, 0, len(persons))
	for _, p := range persons {
		resp = append(resp, toDTO(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	person, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*person))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req personDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	person, err := h.service.Create(r.Context(), req.toPerson())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDTO(*person))
	audit.LogRequest(h.auditLogger, r, "person.create", "person", strconv.FormatInt(person.ID, 10), "", map[string]any{
		"category": person.Category,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var req personDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.ID = id
	person, err := h.service.Update(r.Context(), req.toPerson())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(*person))
	audit.LogRequest(h.auditLogger, r, "person.update", "person", strconv.FormatInt(id, 10), "", nil)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	audit.LogRequest(h.auditLogger, r, "person.delete", "person", strconv.FormatInt(id, 10), "", nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, masterdata.ErrPersonNotFound):
		http.Error(w, "person not found", http.StatusNotFound)
	case errors.Is(err, masterdata.ErrEmptyName),
		errors.Is(err, masterdata.ErrFieldTooLong),
		errors.Is(err, masterdata.ErrInvalidCategory),
		errors.Is(err, masterdata.ErrNegativePrice),
		errors.Is(err, masterdata.ErrNegativeQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
