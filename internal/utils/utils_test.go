package utils

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateSecureOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateSecureOTP(6)
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestGenerateReference(t *testing.T) {
	ref, err := GenerateReference(6)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, ReferencePrefix))
	assert.Regexp(t, regexp.MustCompile(`^RST-[A-HJ-NP-Z2-9]{6}$`), ref)
}

func TestHashOTP(t *testing.T) {
	assert.Equal(t, HashOTP("482913"), HashOTP("482913"))
	assert.NotEqual(t, HashOTP("482913"), HashOTP("482914"))
	assert.Len(t, HashOTP("482913"), 64)
}

func TestJWTRoundTrip(t *testing.T) {
	id := primitive.NewObjectID()
	token, err := GenerateJWT("s3cret", id, "admin", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.ID)
	assert.Equal(t, "admin", claims.Role)

	_, err = ParseJWT("other", token)
	assert.Error(t, err)

	expired, err := GenerateJWT("s3cret", id, "user", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT("s3cret", expired)
	assert.Error(t, err)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int64
	}{
		{"", 1, 20},
		{"?page=3&limit=5", 3, 5},
		{"?page=-1&limit=abc", 1, 20},
		{"?limit=500", 1, 100},
	}
	for _, tt := range tests {
		page, limit := ParsePagination(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), 20, 100)
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
	}

	var p payload
	rr := httptest.NewRecorder()
	ok := DecodeAndValidate(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com"}`)), &p)
	assert.True(t, ok)
	assert.Equal(t, "a@x.com", p.Email)

	rr = httptest.NewRecorder()
	ok = DecodeAndValidate(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`)), &p)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "email")
}
