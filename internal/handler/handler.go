package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Dan9191/condo-service/internal/integrations/ecf"
	"github.com/Dan9191/condo-service/internal/middleware"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"github.com/Dan9191/condo-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *service.Service
	ecf *ecf.Parser
	log *logrus.Logger
}

func NewHandler(svc *service.Service, parser *ecf.Parser, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, ecf: parser, log: log}
}

// Router builds the HTTP routes. Everything but /healthz requires a token.
func (h *Handler) Router(verifier middleware.TokenVerifier) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(h.log))
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(middleware.Auth(verifier))

	api.HandleFunc("/condominiums", h.ListCondominiums).Methods(http.MethodGet)
	api.HandleFunc("/condominiums", h.CreateCondominium).Methods(http.MethodPost)

	c := api.PathPrefix("/condominiums/{condoID}").Subrouter()
	c.HandleFunc("", get(h, "", h.getCondominium)).Methods(http.MethodGet)
	c.HandleFunc("", update(h, "", h.updateCondominium)).Methods(http.MethodPut)

	c.HandleFunc("/units", list(h, h.svc.ListUnits)).Methods(http.MethodGet)
	c.HandleFunc("/units", create(h, h.svc.CreateUnit)).Methods(http.MethodPost)
	c.HandleFunc("/units/{unitID}", get(h, "unitID", h.svc.GetUnit)).Methods(http.MethodGet)
	c.HandleFunc("/units/{unitID}", update(h, "unitID", h.svc.UpdateUnit)).Methods(http.MethodPut)
	c.HandleFunc("/units/{unitID}", remove(h, "unitID", h.svc.DeleteUnit)).Methods(http.MethodDelete)
	c.HandleFunc("/units/{unitID}/statement", get(h, "unitID", h.svc.UnitStatement)).Methods(http.MethodGet)
	c.HandleFunc("/units/{unitID}/movements", createFor(h, "unitID", h.svc.AddMovement)).Methods(http.MethodPost)
	c.HandleFunc("/units/{unitID}/monthly-fee", h.AddMonthlyFee).Methods(http.MethodPost)
	c.HandleFunc("/units/{unitID}/comments", get(h, "unitID", h.svc.ListComments)).Methods(http.MethodGet)
	c.HandleFunc("/units/{unitID}/comments", h.AddComment).Methods(http.MethodPost)
	c.HandleFunc("/monthly-fees", run(h, h.svc.GenerateMonthlyFees)).Methods(http.MethodPost)
	c.HandleFunc("/receivables", list(h, h.svc.Receivables)).Methods(http.MethodGet)

	c.HandleFunc("/invoices", list(h, h.svc.ListInvoices)).Methods(http.MethodGet)
	c.HandleFunc("/invoices", create(h, h.svc.CreateInvoice)).Methods(http.MethodPost)
	c.HandleFunc("/invoices/import", h.ImportInvoice).Methods(http.MethodPost)
	c.HandleFunc("/invoices/reconciliation", list(h, h.svc.ReconcileInvoices)).Methods(http.MethodGet)
	c.HandleFunc("/invoices/{invoiceID}", get(h, "invoiceID", h.svc.GetInvoice)).Methods(http.MethodGet)
	c.HandleFunc("/invoices/{invoiceID}", update(h, "invoiceID", h.svc.UpdateInvoice)).Methods(http.MethodPut)
	c.HandleFunc("/invoices/{invoiceID}", remove(h, "invoiceID", h.svc.DeleteInvoice)).Methods(http.MethodDelete)
	c.HandleFunc("/invoices/{invoiceID}/pay", h.PayInvoice).Methods(http.MethodPost)

	c.HandleFunc("/transactions", list(h, h.svc.TransactionHistory)).Methods(http.MethodGet)
	c.HandleFunc("/transactions", create(h, h.svc.AddTransaction)).Methods(http.MethodPost)
	c.HandleFunc("/finances/summary", list(h, h.svc.FinanceSummary)).Methods(http.MethodGet)
	c.HandleFunc("/finances/cashflow", h.Cashflow).Methods(http.MethodGet)

	c.HandleFunc("/suppliers", list(h, h.svc.ListSuppliers)).Methods(http.MethodGet)
	c.HandleFunc("/suppliers", create(h, h.svc.CreateSupplier)).Methods(http.MethodPost)
	c.HandleFunc("/suppliers/import", h.ImportSuppliers).Methods(http.MethodPost)
	c.HandleFunc("/suppliers/{id}", get(h, "id", h.svc.GetSupplier)).Methods(http.MethodGet)
	c.HandleFunc("/suppliers/{id}", update(h, "id", h.svc.UpdateSupplier)).Methods(http.MethodPut)
	c.HandleFunc("/suppliers/{id}", remove(h, "id", h.svc.DeleteSupplier)).Methods(http.MethodDelete)

	c.HandleFunc("/employees", list(h, h.svc.ListEmployees)).Methods(http.MethodGet)
	c.HandleFunc("/employees", create(h, h.svc.CreateEmployee)).Methods(http.MethodPost)
	c.HandleFunc("/employees/{id}", get(h, "id", h.svc.GetEmployee)).Methods(http.MethodGet)
	c.HandleFunc("/employees/{id}", update(h, "id", h.svc.UpdateEmployee)).Methods(http.MethodPut)
	c.HandleFunc("/employees/{id}", remove(h, "id", h.svc.DeleteEmployee)).Methods(http.MethodDelete)

	c.HandleFunc("/incidents", list(h, h.svc.ListIncidents)).Methods(http.MethodGet)
	c.HandleFunc("/incidents", create(h, h.svc.CreateIncident)).Methods(http.MethodPost)
	c.HandleFunc("/incidents/{id}", get(h, "id", h.svc.GetIncident)).Methods(http.MethodGet)
	c.HandleFunc("/incidents/{id}", update(h, "id", h.svc.UpdateIncident)).Methods(http.MethodPut)
	c.HandleFunc("/incidents/{id}", remove(h, "id", h.svc.DeleteIncident)).Methods(http.MethodDelete)

	c.HandleFunc("/communications", list(h, h.svc.ListCommunications)).Methods(http.MethodGet)
	c.HandleFunc("/communications", create(h, h.svc.CreateCommunication)).Methods(http.MethodPost)
	c.HandleFunc("/communications/{id}", get(h, "id", h.svc.GetCommunication)).Methods(http.MethodGet)
	c.HandleFunc("/communications/{id}", update(h, "id", h.svc.UpdateCommunication)).Methods(http.MethodPut)
	c.HandleFunc("/communications/{id}", remove(h, "id", h.svc.DeleteCommunication)).Methods(http.MethodDelete)
	c.HandleFunc("/communications/{id}/send", action(h, "id", h.svc.SendCommunication)).Methods(http.MethodPost)
	c.HandleFunc("/reminders", run(h, h.svc.SendBalanceReminders)).Methods(http.MethodPost)

	c.HandleFunc("/reports/debtors.csv", h.DebtorReport).Methods(http.MethodGet)
	c.HandleFunc("/reports/debtors/upload", run(h, h.uploadDebtorReport)).Methods(http.MethodPost)

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// authorize checks the caller against the {condoID} route variable and
// writes 401/403 itself when access is denied
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, write bool) (string, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	condoID := mux.Vars(r)["condoID"]
	if err := h.svc.Authorize(p, condoID, write); err != nil {
		h.fail(w, r, err)
		return "", false
	}
	return condoID, true
}

// fail maps service and repository errors to HTTP statuses
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, repository.ErrInvoiceAlreadyPaid),
		errors.Is(err, repository.ErrFeeAlreadyRegistered):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrFeeNotConfigured):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrUploadDisabled), errors.Is(err, service.ErrNotifierDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, false)
}

// decodeOptional accepts an empty body and leaves v untouched
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// Generic endpoint builders. Each authorizes against {condoID}; reads need
// access, writes need management rights.

func list[R any](h *Handler, fn func(ctx context.Context, condoID string) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, false)
		if !ok {
			return
		}
		res, err := fn(r.Context(), condoID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// run is list for operations that change state
func run[R any](h *Handler, fn func(ctx context.Context, condoID string) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, true)
		if !ok {
			return
		}
		res, err := fn(r.Context(), condoID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func get[R any](h *Handler, idVar string, fn func(ctx context.Context, condoID, id string) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, false)
		if !ok {
			return
		}
		res, err := fn(r.Context(), condoID, mux.Vars(r)[idVar])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func action[R any](h *Handler, idVar string, fn func(ctx context.Context, condoID, id string) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, true)
		if !ok {
			return
		}
		res, err := fn(r.Context(), condoID, mux.Vars(r)[idVar])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func create[P, R any](h *Handler, fn func(ctx context.Context, condoID string, params P) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, true)
		if !ok {
			return
		}
		var params P
		if !decode(w, r, &params) {
			return
		}
		res, err := fn(r.Context(), condoID, params)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

// createFor creates a child of the resource named by idVar
func createFor[P, R any](h *Handler, idVar string, fn func(ctx context.Context, condoID, id string, params P) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, true)
		if !ok {
			return
		}
		var params P
		if !decode(w, r, &params) {
			return
		}
		res, err := fn(r.Context(), condoID, mux.Vars(r)[idVar], params)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func update[P, R any](h *Handler, idVar string, fn func(ctx context.Context, condoID, id string, params P) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, true)
		if !ok {
			return
		}
		var params P
		if !decode(w, r, &params) {
			return
		}
		res, err := fn(r.Context(), condoID, mux.Vars(r)[idVar], params)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func remove(h *Handler, idVar string, fn func(ctx context.Context, condoID, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		condoID, ok := h.authorize(w, r, true)
		if !ok {
			return
		}
		if err := fn(r.Context(), condoID, mux.Vars(r)[idVar]); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
