package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/condo-service/internal/integrations/ecf"
	"github.com/Dan9191/condo-service/internal/middleware"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository/memory"
	"github.com/Dan9191/condo-service/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t        *testing.T
	server   http.Handler
	verifier *middleware.JWTVerifier
	store    *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Condominiums().Create(ctx, &models.Condominium{ID: "c1", Name: "Torre Azul", Currency: models.CurrencyDOP}))
	require.NoError(t, store.Condominiums().Create(ctx, &models.Condominium{ID: "c2", Name: "Residencial Palmeras", Currency: models.CurrencyDOP}))

	svc := service.NewService(store, log, nil, nil)
	v := middleware.NewJWTVerifier("test-secret")
	h := NewHandler(svc, ecf.NewParser(log), log)
	return &testEnv{t: t, server: h.Router(v), verifier: v, store: store}
}

func (e *testEnv) token(role models.Role, tenants ...string) string {
	e.t.Helper()
	tok, err := e.verifier.Issue(models.Principal{
		UserID: "u-" + string(role), Email: string(role) + "@torreazul.do", Role: role, Tenants: tenants,
	}, time.Hour)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(token, method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

func decodeResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do("", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAccessControl(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")
	owner := env.token(models.RoleOwner, "c1")
	super := env.token(models.RoleSuperAdmin)

	tests := []struct {
		name           string
		token          string
		method         string
		path           string
		body           any
		expectedStatus int
	}{
		{"no token", "", http.MethodGet, "/condominiums/c1/units", nil, http.StatusUnauthorized},
		{"owner reads own condominium", owner, http.MethodGet, "/condominiums/c1/units", nil, http.StatusOK},
		{"owner cannot write", owner, http.MethodPost, "/condominiums/c1/suppliers", map[string]any{"name": "X"}, http.StatusForbidden},
		{"admin of another condominium", admin, http.MethodGet, "/condominiums/c2/units", nil, http.StatusForbidden},
		{"admin writes", admin, http.MethodPost, "/condominiums/c1/suppliers", map[string]any{"name": "Limpieza Total"}, http.StatusCreated},
		{"admin cannot create condominium", admin, http.MethodPost, "/condominiums", map[string]any{"name": "Nuevo"}, http.StatusForbidden},
		{"super admin reaches everything", super, http.MethodGet, "/condominiums/c2", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(tt.token, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestListCondominiumsFiltersByTenant(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(env.token(models.RoleAdmin, "c2"), http.MethodGet, "/condominiums", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	condos := decodeResponse[[]models.Condominium](t, rr)
	require.Len(t, condos, 1)
	assert.Equal(t, "c2", condos[0].ID)
}

func TestPayInvoice(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")

	rr := env.do(admin, http.MethodPost, "/condominiums/c1/suppliers", map[string]any{"name": "Ascensores del Caribe", "rnc": "131234567"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	supplier := decodeResponse[models.Supplier](t, rr)

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/invoices", map[string]any{
		"supplier_id":    supplier.ID,
		"invoice_number": "B0100000001",
		"date":           "2026-10-01T00:00:00Z",
		"amount":         "12000",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	inv := decodeResponse[models.Invoice](t, rr)
	assert.Equal(t, models.InvoicePending, inv.Status)

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/invoices/"+inv.ID+"/pay", map[string]any{"payment_date": "2026-10-10T00:00:00Z"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	paid := decodeResponse[models.Invoice](t, rr)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	assert.NotEmpty(t, paid.RelatedTransactionID)

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/invoices/"+inv.ID+"/pay", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	txns, err := env.store.Transactions().List(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "Pago Factura #B0100000001", txns[0].Description)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(12000)))

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/invoices/missing/pay", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMonthlyFee(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")

	create := func(number string, fee string) string {
		rr := env.do(admin, http.MethodPost, "/condominiums/c1/units", map[string]any{
			"unit_number": number,
			"owner":       map[string]any{"name": "Ana Pérez", "email": "ana@example.com"},
			"fees":        map[string]any{"monthly_fee": fee, "late_fee_percentage": "0"},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		return decodeResponse[models.Unit](t, rr).ID
	}
	withFee := create("A-101", "3500")
	noFee := create("A-102", "0")

	rr := env.do(admin, http.MethodPost, "/condominiums/c1/units/"+withFee+"/monthly-fee", nil)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = env.do(admin, http.MethodPost, "/condominiums/c1/units/"+withFee+"/monthly-fee", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	rr = env.do(admin, http.MethodPost, "/condominiums/c1/units/"+noFee+"/monthly-fee", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = env.do(admin, http.MethodGet, "/condominiums/c1/units/"+withFee+"/statement", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decodeResponse[service.UnitStatement](t, rr)
	assert.True(t, st.Balance.Equal(decimal.NewFromInt(3500)))
	assert.Equal(t, "Debe", st.StatusLabel)
}

func TestValidationAndBodyErrors(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")

	rr := env.do(admin, http.MethodPost, "/condominiums/c1/units", map[string]any{"unit_number": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unit_number")

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/units", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(admin, http.MethodGet, "/condominiums/c1/finances/cashflow?months=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(admin, http.MethodGet, "/condominiums/c1/finances/cashflow?months=3", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeResponse[[]json.RawMessage](t, rr), 3)
}

func TestAddCommentUsesCallerEmail(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")
	require.NoError(t, env.store.Units().Create(context.Background(), &models.Unit{ID: "u1", CondominiumID: "c1", UnitNumber: "B-201"}))

	rr := env.do(admin, http.MethodPost, "/condominiums/c1/units/u1/comments", map[string]any{"comment": "Llamar por atraso"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(admin, http.MethodGet, "/condominiums/c1/units/u1/comments", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	comments := decodeResponse[[]models.ManagementComment](t, rr)
	require.Len(t, comments, 1)
	assert.Equal(t, "admin@torreazul.do", comments[0].User)
}

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")

	rr := env.do(admin, http.MethodGet, "/condominiums/c1/reports/debtors.csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Unidad,Propietario,Estado,Saldo"))

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/reports/debtors/upload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestImportSuppliersCSV(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")

	body := "Nombre,RNC,Contacto,Telefono,Email,Categoria\n" +
		"Limpieza Total,101000001,Rosa,809-555-0101,rosa@limpieza.do,Limpieza\n" +
		"Seguridad 24,101000002,Juan,809-555-0102,juan@seg24.do,Seguridad\n"
	rr := env.do(admin, http.MethodPost, "/condominiums/c1/suppliers/import", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Len(t, decodeResponse[[]models.Supplier](t, rr), 2)

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/suppliers/import", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, decodeResponse[[]models.Supplier](t, rr))
}

func TestImportInvoiceRejectsMalformedXML(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(env.token(models.RoleAdmin, "c1"), http.MethodPost, "/condominiums/c1/invoices/import", "<ECF>")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPayInvoiceWithStreamedEmptyBody(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(models.RoleAdmin, "c1")

	rr := env.do(admin, http.MethodGet, "/condominiums/c1/invoices", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/suppliers", map[string]any{"name": "Gas del Este", "rnc": "130000009"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	supplier := decodeResponse[models.Supplier](t, rr)
	rr = env.do(admin, http.MethodPost, "/condominiums/c1/invoices", map[string]any{
		"supplier_id":    supplier.ID,
		"invoice_number": "B0100000009",
		"date":           "2026-10-01T00:00:00Z",
		"amount":         "3100",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	inv := decodeResponse[models.Invoice](t, rr)

	// chunked transfer: length unknown, no bytes
	req := httptest.NewRequest(http.MethodPost, "/condominiums/c1/invoices/"+inv.ID+"/pay", strings.NewReader(""))
	req.ContentLength = -1
	req.Header.Set("Authorization", "Bearer "+admin)
	rr = httptest.NewRecorder()
	env.server.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, models.InvoicePaid, decodeResponse[models.Invoice](t, rr).Status)

	rr = env.do(admin, http.MethodDelete, "/condominiums/c1/invoices/"+inv.ID, nil)
	assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())

	rr = env.do(admin, http.MethodPost, "/condominiums/c1/invoices/"+inv.ID+"/pay", "{")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
