package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

type CartService interface {
	SaveCart(ctx context.Context, userID primitive.ObjectID, payload *models.CartPayload) (*models.Cart, error)
	GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	EmptyCart(ctx context.Context, userID primitive.ObjectID) error
	ApplyCoupon(ctx context.Context, userID primitive.ObjectID, name string) (*models.Cart, error)
}

type cartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
	coupons     CouponService
}

func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository, coupons CouponService) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo, coupons: coupons}
}

// SaveCart replaces the user's cart. Prices and titles come from the catalog,
// never from the client. Lines for the same product and color are merged.
func (s *cartService) SaveCart(ctx context.Context, userID primitive.ObjectID, payload *models.CartPayload) (*models.Cart, error) {
	type lineKey struct {
		product primitive.ObjectID
		color   string
	}
	counts := map[lineKey]int{}
	var order []lineKey
	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}

	for _, item := range payload.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product id %q", ErrInvalidInput, item.ProductID)
		}
		key := lineKey{product: productID, color: item.Color}
		if _, ok := counts[key]; !ok {
			order = append(order, key)
		}
		counts[key] += item.Count
		if !seen[productID] {
			seen[productID] = true
			ids = append(ids, productID)
		}
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	cart := &models.Cart{UserID: userID, Items: make([]models.CartItem, 0, len(order))}
	for _, key := range order {
		product, ok := byID[key.product]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, key.product.Hex())
		}
		if counts[key] > product.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, product.Title)
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Title:     product.Title,
			Count:     counts[key],
			Color:     key.color,
			Price:     product.Price,
		})
		cart.CartTotal += product.Price * float64(counts[key])
	}
	cart.CartTotal = models.RoundCents(cart.CartTotal)

	saved, err := s.cartRepo.Save(ctx, cart)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("user_id", userID.Hex()).Int("lines", len(saved.Items)).Msg("Cart saved")
	return saved, nil
}

func (s *cartService) GetCart(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, fmt.Errorf("%w: cart", ErrNotFound)
	}
	return cart, nil
}

func (s *cartService) EmptyCart(ctx context.Context, userID primitive.ObjectID) error {
	return s.cartRepo.DeleteByUser(ctx, userID)
}

func (s *cartService) ApplyCoupon(ctx context.Context, userID primitive.ObjectID, name string) (*models.Cart, error) {
	coupon, err := s.coupons.ValidateCoupon(ctx, name)
	if err != nil {
		return nil, err
	}
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	updated, err := s.cartRepo.SetDiscount(ctx, userID, coupon.Name, coupon.Apply(cart.CartTotal))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: cart", ErrNotFound)
	}
	log.Info().Str("user_id", userID.Hex()).Str("coupon", coupon.Name).Msg("Coupon applied to cart")
	return updated, nil
}
