package router

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cementerio-ledger/internal/config"
    "github.com/iliyamo/cementerio-ledger/internal/handler"
    "github.com/iliyamo/cementerio-ledger/internal/repository/memstore"
    "github.com/iliyamo/cementerio-ledger/internal/service"
    "github.com/iliyamo/cementerio-ledger/internal/utils"
)

const testSecret = "router-test-secret"

func newTestServer(t *testing.T) *echo.Echo {
    t.Helper()
    st := memstore.New()
    st.SeedPrice("Sector A", decimal.RequireFromString("200.00"))
    st.SeedPrice("Sector C - Arriendo anual", decimal.RequireFromString("80.00"))
    st.SeedVault("Sector A", "boveda", 10, 4)

    hash, err := utils.HashPassword("clave", 4)
    require.NoError(t, err)

    catalog := service.NewCatalog(st)
    registry := service.NewRegistry(st, nil)
    ledger := service.NewLedger(st, catalog, registry, nil, service.LedgerConfig{}, nil)
    recorder := service.NewRecorder(st, nil, nil)
    queries := service.NewQueries(st, registry, ledger, recorder)
    inbox := service.NewInbox(st, nil)

    return New(Deps{
        Store:        st,
        Public:       handler.NewPublicHandler(catalog, queries),
        Reservations: handler.NewReservationHandler(registry, ledger),
        Payments:     handler.NewPaymentHandler(recorder),
        Messages:     handler.NewMessageHandler(inbox),
        Auth: handler.NewAuthHandler(config.AuthConfig{
            JWTSecret:         testSecret,
            AccessTTL:         time.Minute,
            AdminUser:         "admin",
            AdminPasswordHash: hash,
        }),
        JWTSecret: testSecret,
    })
}

func do(t *testing.T, e *echo.Echo, method, path, body, token string) (int, map[string]any) {
    t.Helper()
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, path, nil)
    } else {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    out := map[string]any{}
    if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    }
    return rec.Code, out
}

func doList(t *testing.T, e *echo.Echo, path string) (int, []map[string]any) {
    t.Helper()
    req := httptest.NewRequest(http.MethodGet, path, nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    var out []map[string]any
    if rec.Code == http.StatusOK {
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    }
    return rec.Code, out
}

func amount(t *testing.T, v any) decimal.Decimal {
    t.Helper()
    switch x := v.(type) {
    case string:
        return decimal.RequireFromString(x)
    case float64:
        return decimal.NewFromFloat(x)
    }
    t.Fatalf("not an amount: %#v", v)
    return decimal.Zero
}

func adminToken(t *testing.T, e *echo.Echo) string {
    t.Helper()
    code, body := do(t, e, http.MethodPost, "/api/admin/login", `{"usuario":"admin","password":"clave"}`, "")
    require.Equal(t, http.StatusOK, code, body)
    tok, _ := body["token"].(string)
    require.NotEmpty(t, tok)
    return tok
}

func TestHealth(t *testing.T) {
    e := newTestServer(t)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)

    rec = httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPriceList(t *testing.T) {
    e := newTestServer(t)
    code, prices := doList(t, e, "/api/precios")
    require.Equal(t, http.StatusOK, code)
    require.Len(t, prices, 2)
    assert.Equal(t, "Sector C - Arriendo anual", prices[0]["sector"])
    assert.Equal(t, "arriendo", prices[0]["modalidad"])
    assert.Equal(t, "compra", prices[1]["modalidad"])
}

func TestReservationAndPaymentFlow(t *testing.T) {
    e := newTestServer(t)

    code, body := do(t, e, http.MethodPost, "/api/reservas", `{
        "cedula":"1234567890","nombres":"Ana","apellidos":"Pérez","email":"ana@example.com",
        "nombresFamiliar":"Rosa","apellidosFamiliar":"Mora","precioId":1}`, "")
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, true, body["success"])
    assert.Equal(t, "Sector A", body["sector"])
    resID := uint64(body["reservaId"].(float64))
    require.NotZero(t, resID)
    resPath := "/" + jsonID(resID)

    code, body = do(t, e, http.MethodPost, "/api/pagos", `{"reservaId":`+jsonID(resID)+`,"monto":80.00}`, "")
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "Partial", body["estadoPago"])

    code, body = do(t, e, http.MethodGet, "/api/pagos/estado"+resPath, "", "")
    require.Equal(t, http.StatusOK, code)
    assert.True(t, amount(t, body["saldoPendiente"]).Equal(decimal.NewFromInt(120)))
    assert.True(t, amount(t, body["montoTotal"]).Equal(decimal.NewFromInt(200)))
    assert.Equal(t, "200.00", body["montoTotal"])
    assert.Equal(t, "80.00", body["montoPagado"])

    code, body = do(t, e, http.MethodPost, "/api/pagos", `{"reservaId":`+jsonID(resID)+`,"monto":"120.00","fechaPago":"2024-03-01"}`, "")
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, "Paid", body["estadoPago"])
    assert.True(t, amount(t, body["saldoPendiente"]).IsZero())
    assert.Equal(t, "0.00", body["saldoPendiente"])

    code, history := doList(t, e, "/api/pagos/reserva"+resPath)
    require.Equal(t, http.StatusOK, code)
    require.Len(t, history, 2)
    assert.True(t, amount(t, history[0]["monto"]).Equal(decimal.NewFromInt(80)))
    assert.Equal(t, "80.00", history[0]["monto"])

    code, body = do(t, e, http.MethodGet, "/api/reservas/cliente/1234567890", "", "")
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["reservas"], 1)

    code, body = do(t, e, http.MethodGet, "/api/pagos/cliente/1234567890", "", "")
    require.Equal(t, http.StatusOK, code)
    data := body["data"].(map[string]any)
    assert.Equal(t, "1234567890", data["cliente"].(map[string]any)["cedula"])

    code, body = do(t, e, http.MethodGet, "/api/deudas/cedula/1234567890", "", "")
    require.Equal(t, http.StatusOK, code)
    assert.True(t, amount(t, body["deuda"]).IsZero())
    assert.Contains(t, body["mensaje"], "No tiene deudas pendientes")

    code, body = do(t, e, http.MethodGet, "/api/familiares/buscar?nombre=rosa", "", "")
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, true, body["encontrado"])
}

func TestClientEndpointIsIdempotent(t *testing.T) {
    e := newTestServer(t)
    payload := `{"cedula":"1803985504","nombres":"Luis","apellidos":"Vera","email":"luis@example.com"}`
    code, first := do(t, e, http.MethodPost, "/api/clientes", payload, "")
    require.Equal(t, http.StatusOK, code)
    code, second := do(t, e, http.MethodPost, "/api/clientes",
        `{"cedula":"1803985504","nombres":"Otro","apellidos":"Nombre","email":"x@example.com"}`, "")
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, first["clienteId"], second["clienteId"])
}

func TestErrorStatuses(t *testing.T) {
    e := newTestServer(t)

    cases := []struct {
        name   string
        method string
        path   string
        body   string
        status int
    }{
        {"bad cedula on client", http.MethodPost, "/api/clientes", `{"cedula":"12ab","nombres":"A","apellidos":"B"}`, http.StatusBadRequest},
        {"missing family names", http.MethodPost, "/api/reservas", `{"cedula":"1234567890","nombres":"A","apellidos":"B","precioId":1}`, http.StatusBadRequest},
        {"unknown price", http.MethodPost, "/api/reservas", `{"cedula":"1234567890","nombres":"A","apellidos":"B","nombresFamiliar":"C","apellidosFamiliar":"D","precioId":99}`, http.StatusBadRequest},
        {"bad cedula on list", http.MethodGet, "/api/reservas/cliente/123", "", http.StatusBadRequest},
        {"missing reservation id", http.MethodPost, "/api/pagos", `{"monto":10}`, http.StatusBadRequest},
        {"negative amount", http.MethodPost, "/api/pagos", `{"reservaId":1,"monto":-5}`, http.StatusBadRequest},
        {"sub-cent amount", http.MethodPost, "/api/pagos", `{"reservaId":1,"monto":0.005}`, http.StatusBadRequest},
        {"unknown reservation payment", http.MethodPost, "/api/pagos", `{"reservaId":999,"monto":5}`, http.StatusNotFound},
        {"bad paid at", http.MethodPost, "/api/pagos", `{"reservaId":1,"monto":5,"fechaPago":"ayer"}`, http.StatusBadRequest},
        {"unknown client payments", http.MethodGet, "/api/pagos/cliente/1234567890", "", http.StatusNotFound},
        {"unknown reservation status", http.MethodGet, "/api/pagos/estado/999", "", http.StatusNotFound},
        {"bad id", http.MethodGet, "/api/pagos/estado/abc", "", http.StatusBadRequest},
        {"bad cedula on debt", http.MethodGet, "/api/deudas/cedula/1", "", http.StatusBadRequest},
        {"empty name search", http.MethodGet, "/api/familiares/buscar", "", http.StatusBadRequest},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            code, body := do(t, e, tc.method, tc.path, tc.body, "")
            assert.Equal(t, tc.status, code, body)
            assert.Equal(t, false, body["success"])
            assert.NotEmpty(t, body["error"])
        })
    }
}

func TestUnknownCedulaDebtIsSuccess(t *testing.T) {
    e := newTestServer(t)
    code, body := do(t, e, http.MethodGet, "/api/deudas/cedula/1803985504", "", "")
    require.Equal(t, http.StatusOK, code)
    assert.True(t, amount(t, body["deuda"]).IsZero())
    assert.Contains(t, body["mensaje"], "no está registrada")
}

func TestAdminRoutes(t *testing.T) {
    e := newTestServer(t)
    code, body := do(t, e, http.MethodPost, "/api/reservas", `{
        "cedula":"1234567890","nombres":"Ana","apellidos":"Pérez",
        "nombresFamiliar":"Rosa","apellidosFamiliar":"Mora","precioId":1}`, "")
    require.Equal(t, http.StatusOK, code, body)
    resID := jsonID(uint64(body["reservaId"].(float64)))
    statusPath := "/api/reservas/" + resID + "/estado"

    code, _ = do(t, e, http.MethodPut, statusPath, `{"estadoPago":"Cancelled"}`, "")
    assert.Equal(t, http.StatusUnauthorized, code)

    code, _ = do(t, e, http.MethodPost, "/api/admin/login", `{"usuario":"admin","password":"mal"}`, "")
    assert.Equal(t, http.StatusUnauthorized, code)
    code, _ = do(t, e, http.MethodPost, "/api/admin/login", `{"usuario":"admin"}`, "")
    assert.Equal(t, http.StatusBadRequest, code)

    tok := adminToken(t, e)

    code, body = do(t, e, http.MethodGet, "/api/admin/me", "", tok)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, "admin", body["usuario"])

    code, _ = do(t, e, http.MethodPut, statusPath, `{"estadoPago":"Cancelado"}`, tok)
    assert.Equal(t, http.StatusBadRequest, code)
    code, _ = do(t, e, http.MethodPut, "/api/reservas/999/estado", `{"estadoPago":"Paid"}`, tok)
    assert.Equal(t, http.StatusNotFound, code)
    code, body = do(t, e, http.MethodPut, statusPath, `{"estadoPago":"Cancelled"}`, tok)
    require.Equal(t, http.StatusOK, code, body)
    assert.Equal(t, true, body["success"])

    code, _ = do(t, e, http.MethodPost, "/api/pagos", `{"reservaId":`+resID+`,"monto":10}`, "")
    assert.Equal(t, http.StatusConflict, code)

    code, body = do(t, e, http.MethodPost, "/api/pagos/reserva/"+resID+"/recalcular", "", tok)
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, "Cancelled", body["estadoPago"])
}

func TestMessages(t *testing.T) {
    e := newTestServer(t)
    code, body := do(t, e, http.MethodPost, "/api/mensajes",
        `{"nombreCompleto":"Marta Ruiz","email":"Marta@Example.com","mensaje":"Horarios de visita?"}`, "")
    require.Equal(t, http.StatusCreated, code, body)
    id := jsonID(uint64(body["id"].(float64)))

    code, _ = do(t, e, http.MethodPost, "/api/mensajes", `{"nombreCompleto":"X","email":"no-es-email","mensaje":"hola"}`, "")
    assert.Equal(t, http.StatusBadRequest, code)

    code, _ = do(t, e, http.MethodGet, "/api/mensajes", "", "")
    assert.Equal(t, http.StatusUnauthorized, code)

    tok := adminToken(t, e)
    code, body = do(t, e, http.MethodGet, "/api/mensajes?noLeidos=true", "", tok)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["mensajes"], 1)

    code, _ = do(t, e, http.MethodPut, "/api/mensajes/"+id+"/leido", "", tok)
    require.Equal(t, http.StatusOK, code)
    code, _ = do(t, e, http.MethodPut, "/api/mensajes/4242/leido", "", tok)
    assert.Equal(t, http.StatusNotFound, code)

    code, body = do(t, e, http.MethodGet, "/api/mensajes?noLeidos=true", "", tok)
    require.Equal(t, http.StatusOK, code)
    assert.Len(t, body["mensajes"], 0)

    code, _ = do(t, e, http.MethodGet, "/api/mensajes?noLeidos=quizas", "", tok)
    assert.Equal(t, http.StatusBadRequest, code)
}

func TestVaults(t *testing.T) {
    e := newTestServer(t)
    code, body := do(t, e, http.MethodGet, "/api/bovedas/disponibles", "", "")
    require.Equal(t, http.StatusOK, code)
    assert.Equal(t, float64(4), body["totalDisponibles"])
}

func jsonID(id uint64) string {
    b, _ := json.Marshal(id)
    return string(b)
}
