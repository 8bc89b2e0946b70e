package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Voldziu/ToCoZwykle/internal/application/dto"
	"github.com/Voldziu/ToCoZwykle/internal/application/receipt"
	"github.com/Voldziu/ToCoZwykle/internal/application/seed"
	"github.com/Voldziu/ToCoZwykle/internal/application/session"
	"github.com/Voldziu/ToCoZwykle/internal/application/sets"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/pdf"
	"github.com/Voldziu/ToCoZwykle/internal/infrastructure/sqlite"
	apphttp "github.com/Voldziu/ToCoZwykle/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp levanta la API completa sobre un SQLite temporal con el catálogo de demostración.
func buildTestApp(t *testing.T, renderer receipt.PDFRenderer) *fiber.App {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	_, err = seed.NewSeeder(store, store, store).Apply(ctx)
	require.NoError(t, err)

	manager := sets.NewManager(store, store, store, time.Second)
	ctrl := session.New(session.Deps{
		Catalog: store,
		Cards:   store,
		Orders:  store,
		Sets:    manager,
		Log:     zerolog.Nop(),
	}, session.Config{QueueSize: 4, StorageTimeout: time.Second, NoticeBuffer: 16})

	runCtx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		_ = ctrl.Run(runCtx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Catalog: store,
		Sets:    manager,
		Session: ctrl,
		PDF:     renderer,
		Log:     zerolog.Nop(),
	})
	return app
}

// do ejecuta la petición y devuelve status y cuerpo.
func do(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func errorCode(t *testing.T, b []byte) string {
	return decode[dto.ErrorResponse](t, b).Code
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalog(t *testing.T) {
	app := buildTestApp(t, nil)

	status, body := do(t, app, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, status)
	cats := decode[[]dto.CategoryResponse](t, body)
	require.Len(t, cats, 6)
	assert.Equal(t, dto.CategoryResponse{CategoryID: 1, Name: "Burgers"}, cats[0])

	status, body = do(t, app, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]dto.ProductResponse](t, body), 30)

	status, body = do(t, app, http.MethodGet, "/products?category=Beverages", nil)
	require.Equal(t, http.StatusOK, status)
	products := decode[[]dto.ProductResponse](t, body)
	require.Len(t, products, 5)
	for _, p := range products {
		assert.Equal(t, int64(3), p.CategoryID)
	}
	assert.Contains(t, string(body), `"price":11.36`, "precio como número JSON")

	status, body = do(t, app, http.MethodGet, "/products?category=Pizza", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_FILTER", errorCode(t, body))
}

// ──────────────────────────────────────────────────────────────────────────────
// Sets por tarjeta
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterAndFetchSets(t *testing.T) {
	app := buildTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/rfid", map[string]any{"sets": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/rfid", dto.RegisterRequest{
		RFID: "555",
		Sets: map[string]map[string]int{"Lunch": {"Pizza": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_PRODUCT", errorCode(t, body))

	status, _ = do(t, app, http.MethodPost, "/rfid", dto.RegisterRequest{
		RFID: "555",
		Sets: map[string]map[string]int{"Lunch": {"Cola": 2, "Fries": 1}},
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = do(t, app, http.MethodGet, "/rfid/555/sets", nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[dto.SetsResponse](t, body)
	require.Contains(t, got, "Lunch")
	require.Len(t, got["Lunch"], 2)
	quantities := map[string]int{}
	for _, l := range got["Lunch"] {
		quantities[l.Name] = l.Quantity
	}
	assert.Equal(t, map[string]int{"Cola": 2, "Fries": 1}, quantities)

	status, body = do(t, app, http.MethodGet, "/rfid/000/sets", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestRenameAndDeleteSet(t *testing.T) {
	app := buildTestApp(t, nil)
	card := seed.DemoCard

	status, _ := do(t, app, http.MethodPost, "/add_set", dto.AddSetRequest{
		SetName: "Set 2", RFID: card,
		Cart: dto.Cart{"Water": {Quantity: 1}},
	})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodPost, "/rename_set", dto.RenameSetRequest{SetNameOld: "Set 2", RFID: card})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/rename_set", dto.RenameSetRequest{SetNameOld: "Set 2", RFID: card, SetNameNew: seed.DemoSet})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(t, body))

	status, _ = do(t, app, http.MethodPost, "/rename_set", dto.RenameSetRequest{SetNameOld: "Set 2", RFID: card, SetNameNew: "Agua"})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPost, "/rename_set", dto.RenameSetRequest{SetNameOld: "Set 2", RFID: card, SetNameNew: "Otra"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/delete_set", dto.DeleteSetRequest{SetName: "Agua", RFID: card})
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodPost, "/delete_set", dto.DeleteSetRequest{SetName: "Agua", RFID: card})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAddAndOverwriteSet(t *testing.T) {
	app := buildTestApp(t, nil)
	card := seed.DemoCard

	status, body := do(t, app, http.MethodPost, "/add_set", dto.AddSetRequest{
		SetName: "X", RFID: card, Cart: dto.Cart{"Pizza": {Quantity: 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_PRODUCT", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/add_set", dto.AddSetRequest{
		SetName: seed.DemoSet, RFID: card, Cart: dto.Cart{"Cola": {Quantity: 1}},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(t, body))

	status, _ = do(t, app, http.MethodPost, "/overwrite_set", dto.OverwriteSetRequest{
		SetNameOld: "No existe", RFID: card, Cart: dto.Cart{"Cola": {Quantity: 1}},
	})
	assert.Equal(t, http.StatusNotFound, status)

	// El precio enviado se ignora: manda el del catálogo.
	status, _ = do(t, app, http.MethodPost, "/overwrite_set", map[string]any{
		"set_name_old": seed.DemoSet,
		"set_name_new": "Brownies",
		"rfid":         card,
		"cart":         map[string]any{"Brownie": map[string]any{"quantity": 3, "price": 0.01}},
	})
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, app, http.MethodGet, "/rfid/"+card+"/sets", nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[dto.SetsResponse](t, body)
	require.Contains(t, got, "Brownies")
	assert.NotContains(t, got, seed.DemoSet)
	require.Len(t, got["Brownies"], 1)
	assert.Equal(t, 3, got["Brownies"][0].Quantity)
	assert.True(t, got["Brownies"][0].Price.Equal(seed.Price(603)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesión del kiosko
// ──────────────────────────────────────────────────────────────────────────────

func TestKiosk_DemoCheckout(t *testing.T) {
	app := buildTestApp(t, nil)

	status, body := do(t, app, http.MethodGet, "/kiosk/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no_session", decode[dto.SessionResponse](t, body).State)

	status, body = do(t, app, http.MethodPost, "/kiosk/cart/items", dto.AddItemRequest{ProductID: 301, Quantity: 1})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_SESSION", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/scan", dto.ScanRequest{RFID: seed.DemoCard})
	require.Equal(t, http.StatusOK, status)
	s := decode[dto.SessionResponse](t, body)
	assert.Equal(t, "active", s.State)
	assert.Equal(t, seed.DemoCard, s.RFID)

	status, body = do(t, app, http.MethodPost, "/kiosk/scan", dto.ScanRequest{RFID: "9876543210"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "SESSION_BUSY", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "EMPTY_CART", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/sets/Set%201/apply", nil)
	require.Equal(t, http.StatusOK, status)
	s = decode[dto.SessionResponse](t, body)
	require.Len(t, s.Lines, 2)
	want := seed.Price(301).Mul(decimal.NewFromInt(2)).Add(seed.Price(201))
	assert.True(t, s.Total.Equal(want), "total %s, esperado %s", s.Total, want)

	status, body = do(t, app, http.MethodPost, "/kiosk/cart/items", dto.AddItemRequest{ProductID: 999, Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "UNKNOWN_PRODUCT", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/checkout?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/checkout?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "FORMAT_UNAVAILABLE", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/checkout", nil)
	require.Equal(t, http.StatusOK, status)
	r := decode[dto.ReceiptResponse](t, body)
	assert.NotEmpty(t, r.ReceiptID)
	assert.Equal(t, seed.DemoCard, r.RFID)
	assert.True(t, r.Total.Equal(want))

	status, body = do(t, app, http.MethodGet, "/kiosk/session", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no_session", decode[dto.SessionResponse](t, body).State)

	status, body = do(t, app, http.MethodPost, "/kiosk/checkout", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "NO_SESSION", errorCode(t, body))
}

func TestKiosk_CartAndSets(t *testing.T) {
	app := buildTestApp(t, nil)

	status, _ := do(t, app, http.MethodPost, "/kiosk/scan", dto.ScanRequest{RFID: "9876543210"})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodPost, "/kiosk/sets", dto.SaveSetRequest{SetName: "Vacía"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "EMPTY_CART", errorCode(t, body))

	status, body = do(t, app, http.MethodPost, "/kiosk/cart/items", dto.AddItemRequest{ProductID: 101, Quantity: 0})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[dto.SessionResponse](t, body).Lines[0].Quantity)

	status, body = do(t, app, http.MethodPost, "/kiosk/cart/items", dto.AddItemRequest{ProductID: 101, Quantity: -2})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_QUANTITY", errorCode(t, body))

	status, _ = do(t, app, http.MethodPost, "/kiosk/cart/items", dto.AddItemRequest{ProductID: 305, Quantity: 2})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPost, "/kiosk/sets", dto.SaveSetRequest{SetName: "Comida"})
	require.Equal(t, http.StatusCreated, status)

	status, body = do(t, app, http.MethodGet, "/kiosk/sets", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.SetsResponse](t, body)["Comida"], 2)

	status, body = do(t, app, http.MethodDelete, "/kiosk/cart/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_ID", errorCode(t, body))

	status, body = do(t, app, http.MethodDelete, "/kiosk/cart/items/305", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.SessionResponse](t, body).Lines, 1)

	status, _ = do(t, app, http.MethodDelete, "/kiosk/cart/items/305", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPut, "/kiosk/sets/Comida", dto.SetNameRequest{SetNameNew: "Solo burger"})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, app, http.MethodPost, "/kiosk/sets/Solo%20burger/rename", dto.SetNameRequest{SetNameNew: "Burger"})
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, app, http.MethodGet, "/kiosk/sets", nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[dto.SetsResponse](t, body)
	require.Len(t, got["Burger"], 1)
	assert.Equal(t, int64(101), got["Burger"][0].ProductID)

	status, _ = do(t, app, http.MethodDelete, "/kiosk/sets/Burger", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = do(t, app, http.MethodDelete, "/kiosk/sets/Burger", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, app, http.MethodDelete, "/kiosk/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[dto.SessionResponse](t, body).Lines)

	status, body = do(t, app, http.MethodPost, "/kiosk/reset", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "no_session", decode[dto.SessionResponse](t, body).State)
}

func TestKiosk_CheckoutFormats(t *testing.T) {
	app := buildTestApp(t, pdf.NewReceiptRenderer())

	checkout := func(format string) *http.Response {
		status, _ := do(t, app, http.MethodPost, "/kiosk/scan", dto.ScanRequest{RFID: seed.DemoCard})
		require.Equal(t, http.StatusOK, status)
		status, _ = do(t, app, http.MethodPost, "/kiosk/cart/items", dto.AddItemRequest{ProductID: 301, Quantity: 2})
		require.Equal(t, http.StatusOK, status)

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/kiosk/checkout?format="+format, nil), 5000)
		require.NoError(t, err)
		return resp
	}

	resp := checkout("text")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(body), receipt.Title)
	assert.Contains(t, string(body), "2 x Cola")

	resp = checkout("pdf")
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestKiosk_Notices(t *testing.T) {
	app := buildTestApp(t, nil)

	status, _ := do(t, app, http.MethodPost, "/kiosk/scan", dto.ScanRequest{RFID: seed.DemoCard})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodGet, "/kiosk/notices", nil)
	require.Equal(t, http.StatusOK, status)
	notices := decode[[]dto.NoticeResponse](t, body)
	require.NotEmpty(t, notices)
	assert.Equal(t, session.KindCardActivated, notices[0].Kind)

	last := notices[len(notices)-1].Seq
	status, body = do(t, app, http.MethodGet, "/kiosk/notices?after="+strconv.FormatUint(last, 10), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]dto.NoticeResponse](t, body))

	status, body = do(t, app, http.MethodGet, "/kiosk/notices?after=-1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_AFTER", errorCode(t, body))
}
