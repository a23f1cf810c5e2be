package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/catalog"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/database"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
	Meta    json.RawMessage `json:"meta"`
}

type cartBody struct {
	Items []struct {
		Key      string  `json:"key"`
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Selected bool    `json:"selected"`
		Subtotal float64 `json:"subtotal"`
	} `json:"items"`
	Total   float64 `json:"total"`
	Count   int     `json:"count"`
	Message string  `json:"message"`
}

func (b cartBody) keys() []string {
	out := make([]string, len(b.Items))
	for i, item := range b.Items {
		out[i] = item.Key
	}
	return out
}

// sseRecorder lets gin's Stream run against a recorder.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *sseRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Session:     config.SessionConfig{Secret: "router-test-secret", TTLHours: 1, IdleMinutes: 30},
		Payment:     config.PaymentConfig{Currency: "usd"},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		I18n:        config.I18nConfig{DefaultLocale: "en"},
	}
}

type RouterTestSuite struct {
	suite.Suite
	db       *gorm.DB
	catalogs *services.CatalogService
	carts    *services.CartService
	router   *gin.Engine
}

func (s *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(i18n.Initialize("en"))
}

func (s *RouterTestSuite) SetupTest() {
	cfg := testConfig()
	utils.SetJWTSecret(cfg.Session.Secret)

	db, err := database.Initialize(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	s.Require().NoError(err)
	s.Require().NoError(database.RunMigrations(db))
	s.db = db

	s.catalogs = services.NewCatalogService()
	s.Require().NoError(s.catalogs.Load(context.Background(), catalog.EmbeddedSource{}))
	s.carts = services.NewCartService(s.catalogs, cfg.Session)
	s.router = Initialize(db, cfg, s.catalogs, s.carts)
}

func (s *RouterTestSuite) TearDownTest() {
	database.Close(s.db)
}

func (s *RouterTestSuite) do(method, path, token string) (*httptest.ResponseRecorder, apiResponse) {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func (s *RouterTestSuite) cart(method, path, token string, status int) cartBody {
	w, resp := s.do(method, path, token)
	s.Require().Equal(status, w.Code, w.Body.String())

	var body cartBody
	if resp.Success {
		s.Require().NoError(json.Unmarshal(resp.Data, &body))
	}
	return body
}

func (s *RouterTestSuite) newSession() string {
	w, resp := s.do(http.MethodPost, "/v1/sessions", "")
	s.Require().Equal(http.StatusCreated, w.Code)

	var info services.SessionInfo
	s.Require().NoError(json.Unmarshal(resp.Data, &info))
	s.Require().NotEmpty(info.Token)
	return info.Token
}

func (s *RouterTestSuite) TestHealth() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, w.Code)

	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("healthy", body["status"])
	s.Equal(float64(9), body["catalog"].(map[string]interface{})["products"])
}

func (s *RouterTestSuite) TestCatalog() {
	w, resp := s.do(http.MethodGet, "/v1/catalog", "")
	s.Equal(http.StatusOK, w.Code)
	var products []map[string]interface{}
	s.Require().NoError(json.Unmarshal(resp.Data, &products))
	s.Len(products, 9)
	s.Equal("waffle-with-berries", products[0]["key"])

	w, resp = s.do(http.MethodGet, "/v1/catalog/categories", "")
	s.Equal(http.StatusOK, w.Code)
	var categories []string
	s.Require().NoError(json.Unmarshal(resp.Data, &categories))
	s.Contains(categories, "Waffle")

	w, resp = s.do(http.MethodGet, "/v1/catalog/vanilla-bean-creme-brulee", "")
	s.Equal(http.StatusOK, w.Code)
	var product map[string]interface{}
	s.Require().NoError(json.Unmarshal(resp.Data, &product))
	s.Equal("Vanilla Bean Crème Brûlée", product["name"])
	s.Equal(7.0, product["price"])

	w, resp = s.do(http.MethodGet, "/v1/catalog/sushi", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", resp.Error.Code)

	w, resp = s.do(http.MethodGet, "/v1/catalog/Not%20A%20Key", "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("BAD_REQUEST", resp.Error.Code)
}

func (s *RouterTestSuite) TestCatalogShowsSessionSelection() {
	token := s.newSession()
	s.cart(http.MethodPost, "/v1/cart/items/classic-tiramisu", token, http.StatusOK)

	w, resp := s.do(http.MethodGet, "/v1/catalog?category=Tiramisu", token)
	s.Equal(http.StatusOK, w.Code)
	var products []map[string]interface{}
	s.Require().NoError(json.Unmarshal(resp.Data, &products))
	s.Require().Len(products, 1)
	s.Equal(true, products[0]["selected"])
	s.Equal(float64(1), products[0]["quantity"])
}

func (s *RouterTestSuite) TestCartRequiresSession() {
	w, resp := s.do(http.MethodGet, "/v1/cart", "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("UNAUTHORIZED", resp.Error.Code)

	w, resp = s.do(http.MethodGet, "/v1/cart", "not-a-token")
	s.Equal(http.StatusUnauthorized, w.Code)

	// a well formed token for a session this server does not know
	token := s.newSession()
	other := Initialize(s.db, testConfig(), s.catalogs, services.NewCartService(s.catalogs, testConfig().Session))
	req := httptest.NewRequest(http.MethodGet, "/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	other.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Body.String(), "UNAUTHORIZED")
}

func (s *RouterTestSuite) TestStepperScenario() {
	token := s.newSession()

	empty := s.cart(http.MethodGet, "/v1/cart", token, http.StatusOK)
	s.Zero(empty.Count)
	s.Empty(empty.Items)
	s.Equal("Your added items will appear here", empty.Message)

	added := s.cart(http.MethodPost, "/v1/cart/items/classic-tiramisu", token, http.StatusOK)
	s.Equal(1, added.Count)
	s.Equal(5.5, added.Total)
	s.Equal("Classic Tiramisu added to your cart", added.Message)

	up := s.cart(http.MethodPost, "/v1/cart/items/classic-tiramisu/increase", token, http.StatusOK)
	s.Equal(2, up.Items[0].Quantity)
	s.Equal(11.0, up.Total)

	down := s.cart(http.MethodPost, "/v1/cart/items/classic-tiramisu/decrease", token, http.StatusOK)
	s.Equal(1, down.Items[0].Quantity)
	s.Equal(5.5, down.Total)

	gone := s.cart(http.MethodPost, "/v1/cart/items/classic-tiramisu/decrease", token, http.StatusOK)
	s.Zero(gone.Count)
	s.Zero(gone.Total)
	s.Empty(gone.Items)
}

func (s *RouterTestSuite) TestOrderingAndRemove() {
	token := s.newSession()

	s.cart(http.MethodPost, "/v1/cart/items/pistachio-baklava", token, http.StatusOK)
	both := s.cart(http.MethodPost, "/v1/cart/items/lemon-meringue-pie", token, http.StatusOK)
	s.Equal([]string{"lemon-meringue-pie", "pistachio-baklava"}, both.keys())
	s.Equal(9.0, both.Total)

	after := s.cart(http.MethodDelete, "/v1/cart/items/pistachio-baklava", token, http.StatusOK)
	s.Equal([]string{"lemon-meringue-pie"}, after.keys())
	s.Equal(5.0, after.Total)
}

func (s *RouterTestSuite) TestErrors() {
	token := s.newSession()

	w, resp := s.do(http.MethodPost, "/v1/cart/items/red-velvet-cake/increase", token)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("INVALID_STATE", resp.Error.Code)

	w, resp = s.do(http.MethodPost, "/v1/cart/items/sushi", token)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", resp.Error.Code)

	s.cart(http.MethodPost, "/v1/cart/items/red-velvet-cake", token, http.StatusOK)
	w, resp = s.do(http.MethodPost, "/v1/cart/items/red-velvet-cake/explode", token)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", resp.Error.Code)

	// the unknown action left the cart alone
	body := s.cart(http.MethodGet, "/v1/cart", token, http.StatusOK)
	s.Equal(1, body.Items[0].Quantity)

	w, resp = s.do(http.MethodGet, "/v1/nowhere", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", resp.Error.Code)
}

func (s *RouterTestSuite) TestCheckoutAndOrders() {
	token := s.newSession()

	w, resp := s.do(http.MethodPost, "/v1/cart/checkout", token)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("EMPTY_CART", resp.Error.Code)

	s.cart(http.MethodPost, "/v1/cart/items/waffle-with-berries", token, http.StatusOK)
	s.cart(http.MethodPost, "/v1/cart/items/macaron-mix-of-five", token, http.StatusOK)
	s.cart(http.MethodPost, "/v1/cart/items/macaron-mix-of-five/increase", token, http.StatusOK)

	w, resp = s.do(http.MethodPost, "/v1/cart/checkout", token)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var confirmation struct {
		Order struct {
			ID          string  `json:"id"`
			OrderNumber string  `json:"order_number"`
			Status      string  `json:"status"`
			Total       float64 `json:"total"`
			Lines       []struct {
				ProductKey string `json:"product_key"`
				Quantity   int    `json:"quantity"`
			} `json:"lines"`
		} `json:"order"`
		Message string `json:"message"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &confirmation))
	s.Equal("Order Confirmed", confirmation.Message)
	s.Equal("confirmed", confirmation.Order.Status)
	s.Equal(22.5, confirmation.Order.Total)
	s.True(strings.HasPrefix(confirmation.Order.OrderNumber, "ORD-"))
	s.Require().Len(confirmation.Order.Lines, 2)
	s.Equal("macaron-mix-of-five", confirmation.Order.Lines[0].ProductKey)
	s.Equal(2, confirmation.Order.Lines[0].Quantity)

	// start new order
	s.Zero(s.cart(http.MethodGet, "/v1/cart", token, http.StatusOK).Count)

	w, _ = s.do(http.MethodGet, "/v1/orders/"+confirmation.Order.ID, token)
	s.Equal(http.StatusOK, w.Code)

	w, resp = s.do(http.MethodGet, "/v1/orders/"+confirmation.Order.ID, s.newSession())
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("NOT_FOUND", resp.Error.Code)

	w, resp = s.do(http.MethodGet, "/v1/orders/not-a-uuid", token)
	s.Equal(http.StatusBadRequest, w.Code)

	w, resp = s.do(http.MethodGet, "/v1/orders?limit=5", token)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("1", w.Header().Get("X-Total-Count"))
	var orders []map[string]interface{}
	s.Require().NoError(json.Unmarshal(resp.Data, &orders))
	s.Len(orders, 1)
}

func (s *RouterTestSuite) TestReset() {
	token := s.newSession()
	s.cart(http.MethodPost, "/v1/cart/items/vanilla-panna-cotta", token, http.StatusOK)
	s.cart(http.MethodPost, "/v1/cart/items/salted-caramel-brownie", token, http.StatusOK)

	body := s.cart(http.MethodPost, "/v1/cart/reset", token, http.StatusOK)
	s.Zero(body.Count)
	s.Zero(body.Total)
	s.Equal("Started a new order", body.Message)
}

func (s *RouterTestSuite) TestEvents() {
	token := s.newSession()
	s.cart(http.MethodPost, "/v1/cart/items/pistachio-baklava", token, http.StatusOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/v1/cart/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	w := &sseRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/event-stream")
	s.Contains(w.Body.String(), "event:cart")
	s.Contains(w.Body.String(), `"count":1`)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestCartRoutesWaitForCatalog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize("en"))

	db, err := database.Initialize(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer database.Close(db)

	catalogs := services.NewCatalogService()
	carts := services.NewCartService(catalogs, testConfig().Session)
	r := Initialize(db, testConfig(), catalogs, carts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "FETCH_ERROR")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/catalog", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCatalogWithNonLatinAndCollidingNames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize("en"))
	utils.SetJWTSecret(testConfig().Session.Secret)

	path := filepath.Join(t.TempDir(), "menu.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"name": "珍珠奶茶", "price": 4.50, "category": "Drinks"},
  {"name": "C Cake", "price": 5, "category": "Cake"},
  {"name": "C++ Cake", "price": 6, "category": "Cake"}
]`), 0o600))

	db, err := database.Initialize(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.RunMigrations(db))

	catalogs := services.NewCatalogService()
	require.NoError(t, catalogs.Load(context.Background(), catalog.FileSource{Path: path}))
	carts := services.NewCartService(catalogs, testConfig().Session)
	r := Initialize(db, testConfig(), catalogs, carts)

	serve := func(method, target, token string) (*httptest.ResponseRecorder, apiResponse) {
		req := httptest.NewRequest(method, target, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var resp apiResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
		return w, resp
	}

	w, resp := serve(http.MethodGet, "/v1/catalog/"+url.PathEscape("珍珠奶茶"), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var product map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Equal(t, "珍珠奶茶", product["name"])
	assert.Equal(t, false, product["selected"])

	w, resp = serve(http.MethodGet, "/v1/catalog/c-cake-2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Equal(t, "C++ Cake", product["name"])

	w, resp = serve(http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var info services.SessionInfo
	require.NoError(t, json.Unmarshal(resp.Data, &info))

	w, _ = serve(http.MethodPost, "/v1/cart/items/"+url.PathEscape("珍珠奶茶"), info.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = serve(http.MethodPost, "/v1/cart/items/c-cake", info.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = serve(http.MethodGet, "/v1/cart", info.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var body cartBody
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	assert.Equal(t, []string{"c-cake", "珍珠奶茶"}, body.keys())
	assert.Equal(t, 9.5, body.Total)

	w, resp = serve(http.MethodGet, "/v1/catalog/"+url.PathEscape("珍珠奶茶"), info.Token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Equal(t, true, product["selected"])
}

func TestEventStreamEndsWhenSessionIsSwept(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.Initialize("en"))
	cfg := testConfig()
	cfg.Session.IdleMinutes = 0
	utils.SetJWTSecret(cfg.Session.Secret)

	db, err := database.Initialize(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.RunMigrations(db))

	catalogs := services.NewCatalogService()
	require.NoError(t, catalogs.Load(context.Background(), catalog.EmbeddedSource{}))
	carts := services.NewCartService(catalogs, cfg.Session)
	r := Initialize(db, cfg, catalogs, carts)

	info, err := carts.CreateSession()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/cart/events", nil)
	req.Header.Set("Authorization", "Bearer "+info.Token)
	w := &sseRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		carts.SweepIdle()
		select {
		case <-done:
			assert.Zero(t, carts.ActiveSessions())
			return
		case <-deadline:
			t.Fatal("event stream outlived its session")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
