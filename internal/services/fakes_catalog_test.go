package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
	ratings  map[primitive.ObjectID]models.RatingSummary
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{
		products: map[primitive.ObjectID]*models.Product{},
		ratings:  map[primitive.ObjectID]models.RatingSummary{},
	}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) stock(id primitive.ObjectID) (quantity, sold int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	return p.Quantity, p.Sold
}

func (f *fakeProductRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeProductRepo) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = primitive.NewObjectID()
	cp := *p
	f.products[p.ID] = &cp
	return p, nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProductRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	p, _ := f.FindBySlug(ctx, slug)
	return p != nil, nil
}

func (f *fakeProductRepo) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.products {
		if q.Category == "" || p.Category == q.Category {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = v.(string)
		case "slug":
			p.Slug = v.(string)
		case "description":
			p.Description = v.(string)
		case "price":
			p.Price = v.(float64)
		case "quantity":
			p.Quantity = v.(int)
		}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return false, nil
	}
	delete(f.products, id)
	return true, nil
}

func (f *fakeProductRepo) SetRating(ctx context.Context, id primitive.ObjectID, s models.RatingSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[id] = s
	if p, ok := f.products[id]; ok {
		p.TotalRating = s.Average
		p.RatingCount = s.Count
	}
	return nil
}

func (f *fakeProductRepo) ReserveStock(ctx context.Context, id primitive.ObjectID, count int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.Quantity < count {
		return false, nil
	}
	p.Quantity -= count
	p.Sold += count
	return true, nil
}

func (f *fakeProductRepo) ReleaseStock(ctx context.Context, id primitive.ObjectID, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		p.Quantity += count
		p.Sold -= count
	}
	return nil
}

func (f *fakeProductRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.products)), nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[primitive.ObjectID]*models.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[primitive.ObjectID]*models.Review{}}
}

func (f *fakeReviewRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeReviewRepo) Upsert(ctx context.Context, r *models.Review) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.ProductID == r.ProductID && existing.UserID == r.UserID {
			existing.Star = r.Star
			existing.Comment = r.Comment
			cp := *existing
			return &cp, nil
		}
	}
	r.ID = primitive.NewObjectID()
	cp := *r
	f.reviews[r.ID] = &cp
	return r, nil
}

func (f *fakeReviewRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReviewRepo) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Review{}
	for _, r := range f.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return false, nil
	}
	delete(f.reviews, id)
	return true, nil
}

func (f *fakeReviewRepo) DeleteByProduct(ctx context.Context, productID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.reviews {
		if r.ProductID == productID {
			delete(f.reviews, id)
		}
	}
	return nil
}

func (f *fakeReviewRepo) Summary(ctx context.Context, productID primitive.ObjectID) (models.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum, n int
	for _, r := range f.reviews {
		if r.ProductID == productID {
			sum += r.Star
			n++
		}
	}
	if n == 0 {
		return models.RatingSummary{}, nil
	}
	avg := float64(sum) / float64(n)
	return models.RatingSummary{Average: float64(int(avg*10+0.5)) / 10, Count: n}, nil
}

type fakeCartRepo struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]*models.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[primitive.ObjectID]*models.Cart{}}
}

func (f *fakeCartRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeCartRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[userID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCartRepo) Save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cart.Coupon = ""
	cart.TotalAfterDiscount = nil
	cart.UpdatedAt = time.Now()
	cp := *cart
	f.carts[cart.UserID] = &cp
	return cart, nil
}

func (f *fakeCartRepo) SetDiscount(ctx context.Context, userID primitive.ObjectID, coupon string, total float64) (*models.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[userID]
	if !ok {
		return nil, nil
	}
	c.Coupon = coupon
	c.TotalAfterDiscount = &total
	cp := *c
	return &cp, nil
}

func (f *fakeCartRepo) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[primitive.ObjectID]*models.Coupon
}

func newFakeCouponRepo(coupons ...*models.Coupon) *fakeCouponRepo {
	f := &fakeCouponRepo{coupons: map[primitive.ObjectID]*models.Coupon{}}
	for _, c := range coupons {
		c.ID = primitive.NewObjectID()
		f.coupons[c.ID] = c
	}
	return f
}

func (f *fakeCouponRepo) EnsureIndexes(ctx context.Context) error { return nil }

var errDuplicateKey = mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}

func (f *fakeCouponRepo) nameTaken(name string, except primitive.ObjectID) bool {
	for id, c := range f.coupons {
		if c.Name == name && id != except {
			return true
		}
	}
	return false
}

func (f *fakeCouponRepo) Create(ctx context.Context, c *models.Coupon) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nameTaken(c.Name, primitive.NilObjectID) {
		return nil, errDuplicateKey
	}
	c.ID = primitive.NewObjectID()
	cp := *c
	f.coupons[c.ID] = &cp
	return c, nil
}

func (f *fakeCouponRepo) FindAll(ctx context.Context) ([]models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Coupon{}
	for _, c := range f.coupons {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCouponRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.coupons[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeCouponRepo) FindByName(ctx context.Context, name string) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.coupons {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCouponRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok {
		return nil, nil
	}
	if f.nameTaken(fields["name"].(string), id) {
		return nil, errDuplicateKey
	}
	c.Name = fields["name"].(string)
	c.Discount = fields["discount"].(float64)
	c.Expiry = fields["expiry"].(time.Time)
	cp := *c
	return &cp, nil
}

func (f *fakeCouponRepo) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.coupons[id]; !ok {
		return false, nil
	}
	delete(f.coupons, id)
	return true, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[primitive.ObjectID]*models.Order{}}
}

func (f *fakeOrderRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeOrderRepo) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = primitive.NewObjectID()
	o.CreatedAt = time.Now()
	cp := *o
	f.orders[o.ID] = &cp
	return o, nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByOrderNumber(ctx context.Context, number string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindAll(ctx context.Context, status string, page, limit int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Order{}
	for _, o := range f.orders {
		if status == "" || string(o.Status) == status {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return nil, nil
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, models.StatusChange{Status: to, ChangedAt: at})
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.orders)), nil
}

func (f *fakeOrderRepo) Revenue(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, o := range f.orders {
		if o.Status != models.OrderCancelled {
			total += o.Payable
		}
	}
	return total, nil
}

func (f *fakeOrderRepo) MonthlyRevenue(ctx context.Context, since time.Time) ([]models.MonthlyRevenue, error) {
	return []models.MonthlyRevenue{}, nil
}

type stubInvoices struct{}

func (stubInvoices) Render(order *models.Order) ([]byte, error) {
	return []byte("%PDF-" + order.OrderNumber), nil
}

type stubDescriber struct {
	text string
	err  error
}

func (s stubDescriber) GenerateDescription(ctx context.Context, p *models.Product) (string, error) {
	return s.text, s.err
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[primitive.ObjectID]*models.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: map[primitive.ObjectID]*models.Article{}}
}

func (f *fakeArticleRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeArticleRepo) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	cp := *a
	f.articles[a.ID] = &cp
	return a, nil
}

func (f *fakeArticleRepo) FindAll(ctx context.Context, category string, page, limit int64) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Article{}
	for _, a := range f.articles {
		if category == "" || a.Category == category {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticleRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.articles[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeArticleRepo) IncrementViews(ctx context.Context, slug string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.Slug == slug {
			a.NumViews++
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeArticleRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, nil
	}
	if v, ok := fields["title"].(string); ok {
		a.Title = v
	}
	if v, ok := fields["slug"].(string); ok {
		a.Slug = v
	}
	if v, ok := fields["description"].(string); ok {
		a.Description = v
	}
	if v, ok := fields["category"].(string); ok {
		a.Category = v
	}
	if v, ok := fields["author"].(string); ok {
		a.Author = v
	}
	if v, ok := fields["images"].([]string); ok {
		a.Images = v
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticleRepo) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[id]; !ok {
		return false, nil
	}
	delete(f.articles, id)
	return true, nil
}

func (f *fakeArticleRepo) ToggleReaction(ctx context.Context, id, userID primitive.ObjectID, like bool) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, nil
	}
	field, opposite := &a.Likes, &a.Dislikes
	if !like {
		field, opposite = &a.Dislikes, &a.Likes
	}
	if slices.Contains(*field, userID) {
		*field = slices.DeleteFunc(*field, func(u primitive.ObjectID) bool { return u == userID })
	} else {
		*field = append(*field, userID)
		*opposite = slices.DeleteFunc(*opposite, func(u primitive.ObjectID) bool { return u == userID })
	}
	cp := *a
	cp.Likes = slices.Clone(a.Likes)
	cp.Dislikes = slices.Clone(a.Dislikes)
	return &cp, nil
}
