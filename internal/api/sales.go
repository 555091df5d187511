package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
	"pharmapos/m/internal/sales"
)

// Sale handlers

type saleItemRequest struct {
	ProductID int64            `json:"product_id" validate:"required,gt=0"`
	Quantity  int64            `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type saleRequest struct {
	Items    []saleItemRequest `json:"items" validate:"required,min=1,dive"`
	Tendered decimal.Decimal   `json:"tendered"`
	ClientID *int64            `json:"client_id,omitempty" validate:"omitempty,gt=0"`
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing staff identity")
		return
	}
	var req saleRequest
	if !h.decode(w, r, &req) {
		return
	}
	lines := make([]sales.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = sales.Line{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	sale, err := h.Sales.RecordSale(r.Context(), sales.Request{
		Items:    lines,
		Tendered: req.Tendered,
		StaffID:  claims.StaffID,
		ClientID: req.ClientID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.Sales.SaleByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) salesInRange(w http.ResponseWriter, r *http.Request) {
	start, err := h.queryTime(r, "start", false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := h.queryTime(r, "end", true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, err := h.Sales.SalesInRange(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) clientSales(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.Sales.SalesForClient(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Client handlers

type clientRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (h *Handler) searchClients(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clients.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) addClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Clients.Add(r.Context(), domain.Client{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.Clients.ByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Clients.Update(r.Context(), domain.Client{ID: id, Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Dashboard.Today(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
