package visitor

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestToken_RoundTrip(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	tok, err := tm.New("v_1", time.Hour)
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "v_1", c.VisitorID)
	assert.NotNil(t, c.ExpiresAt)
}

func TestToken_NoExpiry(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	tok, err := tm.New("v_2", 0)
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	assert.Nil(t, c.ExpiresAt)
}

func TestToken_RejectsOtherSecretAndExpired(t *testing.T) {
	tok, err := NewTokenMaker("another-secret-another-secret-xx").New("v_3", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenMaker(testSecret).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenMaker(testSecret).New("v_3", -time.Minute)
	require.NoError(t, err)
	_, err = NewTokenMaker(testSecret).Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_IssuesAndReusesVisitor(t *testing.T) {
	tm := NewTokenMaker(testSecret)

	var seen []string
	h := Middleware(tm, CookieConfig{TTL: time.Hour}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = append(seen, id)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	tok := rec.Header().Get(HeaderName)
	require.NotEmpty(t, tok)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(HeaderName, tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, seen, 3)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[0], seen[2])
}

func TestMiddleware_GarbageTokenStartsNewVisitor(t *testing.T) {
	var id string
	h := Middleware(NewTokenMaker(testSecret), CookieConfig{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(HeaderName, "not-a-token")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, id)
}
