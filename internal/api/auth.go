package api

import (
	"net/http"

	"pharmapos/m/domain"
)

// Auth handlers

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	Staff domain.Staff `json:"staff"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	token, staff, err := h.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, Staff: staff})
}

type staffRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin pharmacist"`
}

func (h *Handler) createStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if !h.decode(w, r, &req) {
		return
	}
	staff, err := h.Auth.CreateStaff(r.Context(), domain.Staff{
		Username: req.Username,
		FullName: req.FullName,
		Role:     req.Role,
	}, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, staff)
}
