package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

const (
	orderNumberPrefix = "ORD-"
	orderCurrency     = "USD"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID primitive.ObjectID, payload *models.CreateOrderPayload) (*models.Order, error)
	ListMyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	GetOrder(ctx context.Context, userID primitive.ObjectID, role string, id primitive.ObjectID) (*models.Order, error)
	TrackOrder(ctx context.Context, userID primitive.ObjectID, role, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, status string, page, limit int64) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	Invoice(ctx context.Context, userID primitive.ObjectID, role string, id primitive.ObjectID) (*models.Order, []byte, error)
}

type orderService struct {
	orderRepo   repositories.OrderRepository
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	mailer      EmailService
	invoices    InvoiceRenderer
	now         func() time.Time
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	mailer EmailService,
	invoices InvoiceRenderer,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mailer:      mailer,
		invoices:    invoices,
		now:         time.Now,
	}
}

func newOrderNumber() string {
	return orderNumberPrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// CreateOrder turns the user's cart into an order. Stock for every line is
// reserved first; if any line cannot be reserved the earlier reservations are
// released and nothing is written.
func (s *orderService) CreateOrder(ctx context.Context, userID primitive.ObjectID, payload *models.CreateOrderPayload) (*models.Order, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	reserved := make([]models.CartItem, 0, len(cart.Items))
	release := func() {
		for _, item := range reserved {
			if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Count); err != nil {
				log.Error().Err(err).Str("product_id", item.ProductID.Hex()).Int("count", item.Count).Msg("Failed to release reserved stock")
			}
		}
	}
	for _, item := range cart.Items {
		ok, err := s.productRepo.ReserveStock(ctx, item.ProductID, item.Count)
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, item.Title)
		}
		reserved = append(reserved, item)
	}

	now := s.now()
	status := models.OrderNotProcessed
	payment := models.PaymentIntent{Method: "online", Amount: cart.Payable(), Currency: orderCurrency, Status: "pending"}
	if payload.CashOnDelivery {
		status = models.OrderCashOnDelivery
		payment.Method = "cod"
		payment.Status = "cash on delivery"
	}

	order, err := s.orderRepo.Create(ctx, &models.Order{
		OrderNumber:   newOrderNumber(),
		UserID:        userID,
		Items:         cart.Items,
		Payment:       payment,
		Shipping:      payload.Shipping,
		Status:        status,
		StatusHistory: []models.StatusChange{{Status: status, ChangedAt: now}},
		Total:         cart.CartTotal,
		Payable:       cart.Payable(),
		Coupon:        cart.Coupon,
	})
	if err != nil {
		release()
		return nil, err
	}

	if err := s.cartRepo.DeleteByUser(ctx, userID); err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Order placed but cart was not emptied")
	}

	metrics.OrdersCreatedTotal.WithLabelValues(payment.Method).Inc()
	log.Info().Str("order_number", order.OrderNumber).Str("user_id", userID.Hex()).Float64("payable", order.Payable).Msg("Order created")

	if user, err := s.userRepo.FindByID(ctx, userID); err == nil && user != nil {
		if err := s.mailer.SendOrderConfirmation(ctx, user.Email, order); err != nil {
			log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Order confirmation email was not delivered")
		}
	}
	return order, nil
}

func (s *orderService) ListMyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.orderRepo.FindByUser(ctx, userID)
}

func authorizeOrder(order *models.Order, userID primitive.ObjectID, role string) error {
	if order == nil {
		return fmt.Errorf("%w: order", ErrNotFound)
	}
	// Other users' orders are reported as missing.
	if order.UserID != userID && role != models.RoleAdmin {
		return fmt.Errorf("%w: order", ErrNotFound)
	}
	return nil
}

func (s *orderService) GetOrder(ctx context.Context, userID primitive.ObjectID, role string, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(order, userID, role); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) TrackOrder(ctx context.Context, userID primitive.ObjectID, role, orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		return nil, err
	}
	if err := authorizeOrder(order, userID, role); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, status string, page, limit int64) ([]models.Order, error) {
	if status != "" && !models.OrderStatus(status).Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	return s.orderRepo.FindAll(ctx, status, page, limit)
}

// UpdateStatus moves an order along its lifecycle. Cancelling returns the
// reserved stock.
func (s *orderService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order", ErrNotFound)
	}
	if !order.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, status)
	}

	updated, err := s.orderRepo.UpdateStatus(ctx, id, order.Status, status, s.now())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}

	if status == models.OrderCancelled {
		for _, item := range updated.Items {
			if err := s.productRepo.ReleaseStock(ctx, item.ProductID, item.Count); err != nil {
				log.Error().Err(err).Str("order_number", updated.OrderNumber).Str("product_id", item.ProductID.Hex()).Msg("Failed to return stock for cancelled order")
			}
		}
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(status)).Inc()
	log.Info().Str("order_number", updated.OrderNumber).Str("from", string(order.Status)).Str("to", string(status)).Msg("Order status changed")
	return updated, nil
}

func (s *orderService) Invoice(ctx context.Context, userID primitive.ObjectID, role string, id primitive.ObjectID) (*models.Order, []byte, error) {
	order, err := s.GetOrder(ctx, userID, role, id)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := s.invoices.Render(order)
	if err != nil {
		log.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Failed to render invoice")
		return nil, nil, err
	}
	return order, pdf, nil
}
