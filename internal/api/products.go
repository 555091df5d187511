package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"pharmapos/m/domain"
)

// Product handlers

type productRequest struct {
	Name             string          `json:"name" validate:"required"`
	Description      string          `json:"description"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	PurchasePrice    decimal.Decimal `json:"purchase_price"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	ReorderThreshold int64           `json:"reorder_threshold" validate:"gte=0"`
}

func (req productRequest) product(id int64) domain.Product {
	return domain.Product{
		ID:               id,
		Name:             req.Name,
		Description:      req.Description,
		UnitPrice:        req.UnitPrice,
		PurchasePrice:    req.PurchasePrice,
		SalePrice:        req.SalePrice,
		ReorderThreshold: req.ReorderThreshold,
	}
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.Add(r.Context(), req.product(0))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Catalog.ByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req productRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.Update(r.Context(), req.product(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) removeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.Remove(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// Lot handlers

type lotRequest struct {
	LotNumber      string      `json:"lot_number" validate:"required"`
	Quantity       int64       `json:"quantity" validate:"gte=0"`
	ExpirationDate domain.Date `json:"expiration_date"`
}

func (h *Handler) productLots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.Catalog.ByID(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	lots, err := h.Ledger.LotsForProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lots)
}

func (h *Handler) addLot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req lotRequest
	if !h.decode(w, r, &req) {
		return
	}
	lot, err := h.Ledger.AddLot(r.Context(), id, req.LotNumber, req.Quantity, req.ExpirationDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, lot)
}

func (h *Handler) updateLot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req lotRequest
	if !h.decode(w, r, &req) {
		return
	}
	lot, err := h.Ledger.UpdateLot(r.Context(), domain.Lot{
		ID:             id,
		LotNumber:      req.LotNumber,
		Quantity:       req.Quantity,
		ExpirationDate: req.ExpirationDate,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lot)
}

type availabilityResponse struct {
	ProductID    int64 `json:"product_id"`
	Available    int64 `json:"available"`
	HasAvailable bool  `json:"has_available"`
}

func (h *Handler) availability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.Catalog.ByID(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	total, err := h.Ledger.TotalAvailable(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, availabilityResponse{ProductID: id, Available: total, HasAvailable: total > 0})
}

type depleteRequest struct {
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

func (h *Handler) deplete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req depleteRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.Ledger.Deplete(r.Context(), id, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (h *Handler) expiredLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Ledger.ExpiredLots(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lots)
}

func (h *Handler) expiringLots(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", h.ExpiryDays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lots, err := h.Ledger.ExpiringWithin(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lots)
}

func (h *Handler) expiringBetween(w http.ResponseWriter, r *http.Request) {
	start, err := queryInt(r, "start", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := queryInt(r, "end", h.ExpiryDays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lots, err := h.Ledger.ExpiringBetween(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lots)
}
