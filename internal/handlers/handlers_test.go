package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withActor stands in for AuthMiddleware.
func withActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actor.UserID)
		c.Set(middleware.ContextUsername, actor.Username)
		c.Set(middleware.ContextUserRole, actor.Role)
		c.Next()
	}
}

var waiterActor = models.Actor{UserID: "u1", Username: "ana", Role: models.RoleWaiter}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error utils.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestRespondServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("%w: name is required", services.ErrValidation), http.StatusBadRequest, utils.ErrCodeValidationFailed},
		{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
		{fmt.Errorf("%w: 2 left", services.ErrInsufficientStock), http.StatusConflict, utils.ErrCodeInsufficientStock},
		{services.ErrConflict, http.StatusConflict, utils.ErrCodeConflict},
		{services.ErrOrderClosed, http.StatusConflict, utils.ErrCodeConflict},
		{services.ErrUsernameExists, http.StatusConflict, utils.ErrCodeConflict},
		{services.ErrForbidden, http.StatusForbidden, utils.ErrCodeForbidden},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
		{fmt.Errorf("%w: dial tcp", services.ErrBackendUnavailable), http.StatusServiceUnavailable, utils.ErrCodeBackendUnavailable},
		{errors.New("boom"), http.StatusInternalServerError, utils.ErrCodeInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			engine := gin.New()
			engine.GET("/", func(c *gin.Context) { respondServiceError(c, tt.err, "failed") })

			w := doRequest(engine, http.MethodGet, "/", "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestBackendErrorDetailsAreHidden(t *testing.T) {
	engine := gin.New()
	engine.GET("/", func(c *gin.Context) {
		respondServiceError(c, fmt.Errorf("%w: password=hunter2", services.ErrBackendUnavailable), "failed")
	})
	w := doRequest(engine, http.MethodGet, "/", "")
	assert.NotContains(t, w.Body.String(), "hunter2")
}

// stubOrderService overrides the calls a test needs; others panic.
type stubOrderService struct {
	services.OrderService
	create    func(req services.CreateOrderRequest) (*services.OrderResult, error)
	list      func(filters models.OrderFilters) ([]models.Order, int, error)
	cancel    func(orderID string, req services.CancelOrderRequest) (*services.OrderResult, error)
	lastActor models.Actor
}

func (s *stubOrderService) CreateOrder(_ context.Context, actor models.Actor, req services.CreateOrderRequest) (*services.OrderResult, error) {
	s.lastActor = actor
	return s.create(req)
}

func (s *stubOrderService) GetOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	return s.list(filters)
}

func (s *stubOrderService) CancelOrder(_ context.Context, actor models.Actor, orderID string, req services.CancelOrderRequest) (*services.OrderResult, error) {
	s.lastActor = actor
	return s.cancel(orderID, req)
}

func orderEngine(svc services.OrderService, actor *models.Actor) *gin.Engine {
	engine := gin.New()
	h := NewOrderHandler(svc)
	group := engine.Group("/orders")
	if actor != nil {
		group.Use(withActor(*actor))
	}
	group.POST("", h.CreateOrder)
	group.GET("", h.GetOrders)
	group.POST("/:id/cancel", h.CancelOrder)
	return engine
}

func TestCreateOrderHandler(t *testing.T) {
	svc := &stubOrderService{
		create: func(req services.CreateOrderRequest) (*services.OrderResult, error) {
			return &services.OrderResult{
				Order:    &models.Order{ID: "o1", OrderType: models.OrderType(req.OrderType), Status: models.OrderStatusPending},
				Warnings: []string{"insufficient stock: Heineken has 0 Un, needs 1"},
			}, nil
		},
	}
	engine := orderEngine(svc, &waiterActor)

	w := doRequest(engine, http.MethodPost, "/orders", `{"order_type":"counter","items":[{"inventory_item_id":"beer","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var result services.OrderResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "o1", result.Order.ID)
	assert.Len(t, result.Warnings, 1)
	assert.Equal(t, waiterActor, svc.lastActor)
}

func TestCreateOrderHandlerRejectsBadInput(t *testing.T) {
	svc := &stubOrderService{
		create: func(services.CreateOrderRequest) (*services.OrderResult, error) {
			return nil, fmt.Errorf("%w: at least one item is required", services.ErrValidation)
		},
	}

	w := doRequest(orderEngine(svc, nil), http.MethodPost, "/orders", `{"order_type":"counter"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	engine := orderEngine(svc, &waiterActor)
	w = doRequest(engine, http.MethodPost, "/orders", `{"order_type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodPost, "/orders", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodPost, "/orders", `{"order_type":"counter","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least one item")
}

func TestGetOrdersHandler(t *testing.T) {
	var got models.OrderFilters
	svc := &stubOrderService{
		list: func(filters models.OrderFilters) ([]models.Order, int, error) {
			got = filters
			return nil, 0, nil
		},
	}
	engine := orderEngine(svc, &waiterActor)

	w := doRequest(engine, http.MethodGet, "/orders?status=Pendente&page=2&page_size=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.Status)
	assert.Equal(t, "Pendente", *got.Status)
	assert.Nil(t, got.TableID)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 10, got.PageSize)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{}, body["data"])
	assert.Equal(t, float64(0), body["total"])

	w = doRequest(engine, http.MethodGet, "/orders?page=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(engine, http.MethodGet, "/orders?page_size=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOrderHandlerBodyIsOptional(t *testing.T) {
	var gotID string
	var gotReason string
	svc := &stubOrderService{
		cancel: func(orderID string, req services.CancelOrderRequest) (*services.OrderResult, error) {
			gotID, gotReason = orderID, req.Reason
			return &services.OrderResult{Order: &models.Order{ID: orderID, Status: models.OrderStatusCancelled}}, nil
		},
	}
	engine := orderEngine(svc, &waiterActor)

	w := doRequest(engine, http.MethodPost, "/orders/o7/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o7", gotID)
	assert.Empty(t, gotReason)

	w = doRequest(engine, http.MethodPost, "/orders/o7/cancel", `{"reason":"mesa saiu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mesa saiu", gotReason)

	svc.cancel = func(string, services.CancelOrderRequest) (*services.OrderResult, error) {
		return nil, services.ErrOrderClosed
	}
	w = doRequest(engine, http.MethodPost, "/orders/o7/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

type stubAuthService struct {
	services.AuthService
	users    map[string]*models.User
	regActor *models.Actor
}

func (s *stubAuthService) GetUserProfile(_ context.Context, userID string) (*models.User, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

func (s *stubAuthService) RegisterUser(_ context.Context, actor *models.Actor, req services.RegisterUserRequest) (*models.User, error) {
	s.regActor = actor
	return &models.User{ID: "new", Username: req.Username, Role: models.RoleWaiter}, nil
}

func TestGetCurrentUserIncludesPermissions(t *testing.T) {
	svc := &stubAuthService{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "ana", Role: models.RoleWaiter, IsActive: true},
	}}
	h := NewAuthHandler(svc)

	engine := gin.New()
	engine.GET("/me", withActor(waiterActor), h.GetCurrentUser)
	engine.GET("/anon", h.GetCurrentUser)

	w := doRequest(engine, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		User        models.User         `json:"user"`
		Permissions map[string][]string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ana", body.User.Username)
	assert.Equal(t, []string{"view", "create", "update"}, body.Permissions["orders"])
	assert.NotContains(t, body.Permissions, "reports")
	assert.NotContains(t, w.Body.String(), "password")

	w = doRequest(engine, http.MethodGet, "/anon", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterUserPassesOptionalActor(t *testing.T) {
	svc := &stubAuthService{}
	h := NewAuthHandler(svc)
	owner := models.Actor{UserID: "owner", Username: "dono", Role: models.RoleOwner}

	engine := gin.New()
	engine.POST("/anon/register", h.RegisterUser)
	engine.POST("/auth/register", withActor(owner), h.RegisterUser)

	w := doRequest(engine, http.MethodPost, "/anon/register", `{"username":"dono","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, svc.regActor)

	w = doRequest(engine, http.MethodPost, "/auth/register", `{"username":"garcom","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.regActor)
	assert.Equal(t, owner, *svc.regActor)

	w = doRequest(engine, http.MethodPost, "/auth/register", `{"username":"garcom"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubReportService struct {
	services.ReportService
	lowStock *bool
}

func (s *stubReportService) GetInventoryReport(_ context.Context, lowStockOnly bool) ([]models.InventoryReportItem, error) {
	s.lowStock = &lowStockOnly
	return []models.InventoryReportItem{}, nil
}

func (s *stubReportService) GetSalesReport(_ context.Context, params models.ReportRequestParams) (*models.SalesReport, error) {
	if params.StartDate == "bad" {
		return nil, fmt.Errorf("%w: start_date must be YYYY-MM-DD", services.ErrValidation)
	}
	return &models.SalesReport{OrdersCount: 3}, nil
}

func TestReportHandlers(t *testing.T) {
	svc := &stubReportService{}
	h := NewReportHandler(svc)
	engine := gin.New()
	engine.GET("/reports/sales", h.GetSalesReport)
	engine.GET("/reports/inventory", h.GetInventoryReport)

	w := doRequest(engine, http.MethodGet, "/reports/inventory?low_stock=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lowStock)
	assert.True(t, *svc.lowStock)

	w = doRequest(engine, http.MethodGet, "/reports/inventory?low_stock=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodGet, "/reports/sales?start_date=2026-01-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orders_count":3`)

	w = doRequest(engine, http.MethodGet, "/reports/sales?start_date=bad", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubTableService struct {
	services.TableService
	maps []models.TableMap
}

func (s *stubTableService) GetMaps(context.Context) ([]models.TableMap, error) {
	return s.maps, nil
}

type stubSubscriber struct {
	events  chan models.Event
	feeds   []string
	closed  bool
	failure error
}

func (s *stubSubscriber) Subscribe(_ context.Context, feeds ...string) (<-chan models.Event, func() error, error) {
	if s.failure != nil {
		return nil, nil, s.failure
	}
	s.feeds = feeds
	return s.events, func() error {
		s.closed = true
		return nil
	}, nil
}

// closeNotifyRecorder lets gin's Stream run against a ResponseRecorder.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestStreamTablesSendsSnapshotPerEvent(t *testing.T) {
	sub := &stubSubscriber{events: make(chan models.Event, 1)}
	sub.events <- models.Event{Type: models.EventTableUpdated, TableMapID: "m1"}
	close(sub.events)

	tables := &stubTableService{maps: []models.TableMap{{ID: "m1", Name: "Salão"}}}
	h := NewLiveHandler(sub, nil, tables)
	engine := gin.New()
	engine.GET("/live/tables", h.StreamTables)

	w := &closeNotifyRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool)}
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live/tables", nil))

	assert.Equal(t, []string{models.FeedTables}, sub.feeds)
	assert.True(t, sub.closed)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(w.Body.String(), "Salão"))
}

func TestStreamWithoutFeedIsUnavailable(t *testing.T) {
	h := NewLiveHandler(nil, nil, &stubTableService{})
	engine := gin.New()
	engine.GET("/live/tables", h.StreamTables)

	w := doRequest(engine, http.MethodGet, "/live/tables", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	sub := &stubSubscriber{failure: errors.New("redis: connection refused")}
	h = NewLiveHandler(sub, nil, &stubTableService{})
	engine = gin.New()
	engine.GET("/live/tables", h.StreamTables)
	w = doRequest(engine, http.MethodGet, "/live/tables", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
