package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk/internal/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	msgs, err := s.Pop(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, s.Push(ctx, "sid-1", Message{Category: CategoryError, Text: "Patient name is required"}))
	require.NoError(t, s.Push(ctx, "sid-1", Message{Category: CategorySuccess, Text: "second"}))
	require.NoError(t, s.Push(ctx, "sid-2", Message{Category: CategorySuccess, Text: "other session"}))

	msgs, err = s.Pop(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []Message{
		{Category: CategoryError, Text: "Patient name is required"},
		{Category: CategorySuccess, Text: "second"},
	}, msgs)

	msgs, err = s.Pop(ctx, "sid-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	msgs, err = s.Pop(ctx, "sid-2")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestMemoryStore_Expires(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	require.NoError(t, s.Push(context.Background(), "sid", Message{Category: CategorySuccess, Text: "hi"}))
	time.Sleep(20 * time.Millisecond)

	msgs, err := s.Pop(context.Background(), "sid")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, time.Minute)
	t.Cleanup(func() { s.Close() })

	exerciseStore(t, s)
}

func TestRedisStore_SetsTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"}, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Push(context.Background(), "sid", Message{Category: CategorySuccess, Text: "hi"}))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"sid"))

	mr.FastForward(2 * time.Minute)
	msgs, err := s.Pop(context.Background(), "sid")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	_, err := NewRedisStore(context.Background(), config.RedisConfig{URL: "not a url"}, time.Minute)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware("sid", false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, cookies[0].Value, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Len(t, w.Result().Cookies(), 1)
	assert.NotEqual(t, "forged", w.Body.String())
}
