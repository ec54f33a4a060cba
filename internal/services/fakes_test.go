package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// fakeResetRepo keeps reset records in memory and applies each conditional
// write under one lock, like the single-document updates it stands in for.
type fakeResetRepo struct {
	mu      sync.Mutex
	records map[string]*models.PasswordReset
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{records: map[string]*models.PasswordReset{}}
}

func (f *fakeResetRepo) get(email string) *models.PasswordReset {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[email]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (f *fakeResetRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeResetRepo) ReserveRequest(ctx context.Context, email string, now time.Time, window time.Duration) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[email]
	if !ok {
		r = &models.PasswordReset{Email: email, CreatedAt: now}
		f.records[email] = r
	}
	if !r.RequestWindowStart.After(now.Add(-window)) {
		r.RequestCount = 1
		r.RequestWindowStart = now
	} else {
		r.RequestCount++
	}
	if end := now.Add(window); end.After(r.PurgeAt) {
		r.PurgeAt = end
	}
	r.UpdatedAt = now
	cp := *r
	return &cp, nil
}

func (f *fakeResetRepo) SaveChallenge(ctx context.Context, email string, c models.ResetChallenge, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[email]
	if !ok {
		return errors.New("no record")
	}
	r.OTPHash = c.OTPHash
	r.Reference = c.Reference
	r.State = models.ResetStateRequested
	r.ExpiresAt = c.ExpiresAt
	r.AttemptCount = 0
	r.VerifiedAt = nil
	if c.PurgeAt.After(r.PurgeAt) {
		r.PurgeAt = c.PurgeAt
	}
	return nil
}

func (f *fakeResetRepo) FindByEmail(ctx context.Context, email string) (*models.PasswordReset, error) {
	return f.get(email), nil
}

func (f *fakeResetRepo) active(email, reference string, now time.Time, maxAttempts int) *models.PasswordReset {
	r, ok := f.records[email]
	if !ok || r.State != models.ResetStateRequested || r.ExpiresAt.Before(now) || r.AttemptCount >= maxAttempts {
		return nil
	}
	if reference != "" && r.Reference != reference {
		return nil
	}
	return r
}

func (f *fakeResetRepo) MarkVerified(ctx context.Context, email, reference, otpHash string, now time.Time, maxAttempts int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.active(email, reference, now, maxAttempts)
	if r == nil || r.OTPHash != otpHash {
		return false, nil
	}
	r.State = models.ResetStateVerified
	at := now
	r.VerifiedAt = &at
	return true, nil
}

func (f *fakeResetRepo) IncrementAttempts(ctx context.Context, email, reference, otpHash string, now time.Time, maxAttempts int) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.active(email, reference, now, maxAttempts)
	if r == nil || r.OTPHash == otpHash {
		return nil, nil
	}
	r.AttemptCount++
	cp := *r
	return &cp, nil
}

func (f *fakeResetRepo) ConsumeVerified(ctx context.Context, email string, verifiedSince time.Time) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[email]
	if !ok || r.State != models.ResetStateVerified || r.VerifiedAt == nil || r.VerifiedAt.Before(verifiedSince) {
		return nil, nil
	}
	delete(f.records, email)
	return r, nil
}

func (f *fakeResetRepo) Restore(ctx context.Context, record *models.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[record.Email]; !ok {
		cp := *record
		f.records[record.Email] = &cp
	}
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]*models.User
	updateErr   error
	passwordSet int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context, page, limit int64) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	for k, v := range fields {
		switch k {
		case "first_name":
			u.FirstName = v.(string)
		case "last_name":
			u.LastName = v.(string)
		case "email":
			u.Email = v.(string)
		case "mobile":
			u.Mobile = v.(string)
		case "address":
			u.Address = v.(string)
		case "password":
			u.Password = v.(string)
		}
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.Password = hash
	f.passwordSet++
	return nil
}

func (f *fakeUserRepo) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return false, nil
	}
	u.IsBlocked = blocked
	return true, nil
}

func (f *fakeUserRepo) ToggleWishlist(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return false, errors.New("user not found")
	}
	for i, id := range u.Wishlist {
		if id == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			return false, nil
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return true, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(f.users, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) CountUsersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if !u.CreatedAt.Before(start) && u.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	To, Code, Reference string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	orders []string
	err    error
}

func (f *fakeMailer) SendEmail(ctx context.Context, to, subject, msg string) error { return f.err }

func (f *fakeMailer) SendPasswordResetOTP(ctx context.Context, to, code, reference string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Code: code, Reference: reference})
	return f.err
}

func (f *fakeMailer) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order.OrderNumber)
	return f.err
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
