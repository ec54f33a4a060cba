package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/utils"
)

type stubOrderService struct {
	services.OrderService
	order *models.Order
	role  string
}

func (s *stubOrderService) Invoice(ctx context.Context, userID primitive.ObjectID, role string, id primitive.ObjectID) (*models.Order, []byte, error) {
	s.role = role
	if s.order == nil || s.order.ID != id {
		return nil, nil, services.ErrNotFound
	}
	return s.order, []byte("%PDF-1.3 fake"), nil
}

func (s *stubOrderService) TrackOrder(ctx context.Context, userID primitive.ObjectID, role, orderNumber string) (*models.Order, error) {
	if s.order == nil || s.order.OrderNumber != orderNumber {
		return nil, services.ErrNotFound
	}
	return s.order, nil
}

func authedRequest(method, target string, vars map[string]string, role string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(utils.WithUser(req.Context(), primitive.NewObjectID().Hex(), role))
	return mux.SetURLVars(req, vars)
}

func TestInvoiceStreamsPDF(t *testing.T) {
	order := &models.Order{ID: primitive.NewObjectID(), OrderNumber: "ORD-1A2B3C4D5E6F"}
	svc := &stubOrderService{order: order}
	h := NewOrderHandler(svc)

	rr := httptest.NewRecorder()
	h.Invoice(rr, authedRequest(http.MethodGet, "/", map[string]string{"id": order.ID.Hex()}, models.RoleAdmin))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="invoice-ORD-1A2B3C4D5E6F.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 fake", rr.Body.String())
	assert.Equal(t, models.RoleAdmin, svc.role)
}

func TestInvoiceUnknownOrder(t *testing.T) {
	h := NewOrderHandler(&stubOrderService{})

	rr := httptest.NewRecorder()
	h.Invoice(rr, authedRequest(http.MethodGet, "/", map[string]string{"id": primitive.NewObjectID().Hex()}, models.RoleUser))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.Invoice(rr, authedRequest(http.MethodGet, "/", map[string]string{"id": "nope"}, models.RoleUser))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrackOrderReturnsStatusOnly(t *testing.T) {
	order := &models.Order{
		ID:            primitive.NewObjectID(),
		OrderNumber:   "ORD-1A2B3C4D5E6F",
		Status:        models.OrderProcessing,
		StatusHistory: []models.StatusChange{{Status: models.OrderProcessing, ChangedAt: time.Now()}},
		Shipping:      models.ShippingInfo{Address: "1 Main St"},
	}
	h := NewOrderHandler(&stubOrderService{order: order})

	rr := httptest.NewRecorder()
	h.TrackOrder(rr, authedRequest(http.MethodGet, "/", map[string]string{"orderNumber": order.OrderNumber}, models.RoleUser))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, string(models.OrderProcessing), body["status"])
	assert.NotContains(t, body, "shipping")
}

func TestOrderHandlersRequireUserInContext(t *testing.T) {
	h := NewOrderHandler(&stubOrderService{})
	rr := httptest.NewRecorder()
	h.ListMyOrders(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
