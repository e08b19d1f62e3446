package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/condo-service/internal/middleware"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/gorilla/mux"
)

func (h *Handler) ListCondominiums(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	condos, err := h.svc.ListCondominiums(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, condos)
}

// CreateCondominium is reserved to super administrators
func (h *Handler) CreateCondominium(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if p.Role != models.RoleSuperAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var params models.CondominiumParams
	if !decode(w, r, &params) {
		return
	}
	c, err := h.svc.CreateCondominium(r.Context(), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCondominium(ctx context.Context, condoID, _ string) (*models.Condominium, error) {
	return h.svc.GetCondominium(ctx, condoID)
}

func (h *Handler) updateCondominium(ctx context.Context, condoID, _ string, params models.CondominiumParams) (*models.Condominium, error) {
	return h.svc.UpdateCondominium(ctx, condoID, params)
}

func (h *Handler) AddMonthlyFee(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, true)
	if !ok {
		return
	}
	m, err := h.svc.AddMonthlyFee(r.Context(), condoID, mux.Vars(r)["unitID"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// AddComment records a management note signed with the caller's e-mail
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, true)
	if !ok {
		return
	}
	var req commentRequest
	if !decode(w, r, &req) {
		return
	}
	p, _ := middleware.PrincipalFrom(r.Context())
	author := p.Email
	if author == "" {
		author = p.UserID
	}
	c, err := h.svc.AddComment(r.Context(), condoID, mux.Vars(r)["unitID"], author, req.Comment)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type payRequest struct {
	PaymentDate *time.Time `json:"payment_date"`
}

// PayInvoice settles an invoice. The body is optional; the payment date
// defaults to now.
func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, true)
	if !ok {
		return
	}
	var req payRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	var date time.Time
	if req.PaymentDate != nil {
		date = *req.PaymentDate
	}
	inv, err := h.svc.PayInvoice(r.Context(), condoID, mux.Vars(r)["invoiceID"], date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ImportInvoice registers a payable from an e-CF XML body
func (h *Handler) ImportInvoice(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, true)
	if !ok {
		return
	}
	doc, err := h.ecf.Parse(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv, err := h.svc.ImportECF(r.Context(), condoID, doc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// ImportSuppliers accepts a CSV body, or a multipart form with a "file" part
func (h *Handler) ImportSuppliers(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, true)
	if !ok {
		return
	}
	body, err := csvBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.ImportSuppliers(r.Context(), condoID, body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func csvBody(w http.ResponseWriter, r *http.Request) (io.Reader, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return http.MaxBytesReader(w, r.Body, maxBodyBytes), nil
	}
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file: %w", err)
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return &buf, nil
}

func (h *Handler) Cashflow(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, false)
	if !ok {
		return
	}
	months := 0
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "months must be an integer")
			return
		}
		months = n
	}
	flows, err := h.svc.Cashflow(r.Context(), condoID, months)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flows)
}

// DebtorReport streams the debtor list as CSV
func (h *Handler) DebtorReport(w http.ResponseWriter, r *http.Request) {
	condoID, ok := h.authorize(w, r, false)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.WriteDebtorReport(r.Context(), condoID, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="deudores.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil && !errors.Is(err, context.Canceled) {
		h.log.Warnf("Failed to write debtor report: %v", err)
	}
}

type uploadResult struct {
	Location string `json:"location"`
}

func (h *Handler) uploadDebtorReport(ctx context.Context, condoID string) (uploadResult, error) {
	loc, err := h.svc.UploadDebtorReport(ctx, condoID)
	return uploadResult{Location: loc}, err
}
