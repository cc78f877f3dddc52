package handler

import (
	"context"
	stderrors "errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk/internal/session"
	"github.com/jwalitptl/frontdesk/pkg/errors"
)

const sid = "3f1c2a8e-7d7c-4d0e-9a55-5d5f0f3b2c11"

func newEngine(h *BaseHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("error.html").Parse(
		`{{range .Flashes}}[{{.Category}}:{{.Text}}]{{end}}{{.Title}}|{{.Message}}`)))
	r.Use(func(c *gin.Context) {
		c.Request.AddCookie(&http.Cookie{Name: "sid", Value: sid})
		c.Next()
	}, session.Middleware("sid", false))
	return r
}

func TestFail_HidesPersistenceCause(t *testing.T) {
	flashes := session.NewMemoryStore(time.Minute)
	h := NewBaseHandler(flashes)
	r := newEngine(h)
	r.POST("/save", func(c *gin.Context) {
		h.Fail(c, errors.Persistence("create patient", stderrors.New("pq: connection refused")), "/patients/create")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/save", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/patients/create", w.Header().Get("Location"))

	msgs, err := flashes.Pop(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, session.Message{Category: session.CategoryError, Text: "Failed to create patient"}, msgs[0])
}

func TestRenderError(t *testing.T) {
	flashes := session.NewMemoryStore(time.Minute)
	h := NewBaseHandler(flashes)
	r := newEngine(h)
	r.GET("/missing", func(c *gin.Context) { h.RenderError(c, errors.NotFound("patient", nil)) })
	r.GET("/broken", func(c *gin.Context) { h.RenderError(c, errors.Persistence("list patients", nil)) })

	require.NoError(t, flashes.Push(context.Background(), sid, session.Message{Category: session.CategorySuccess, Text: "hi"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "[success:hi]Not found|Patient not found", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Something went wrong|Failed to list patients", w.Body.String())
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	_, err := ParseID(c, "id", "appointment")
	assert.True(t, errors.Is(err, errors.KindNotFound))
	assert.Equal(t, "Appointment not found", errors.Message(err))

	c.Params = gin.Params{{Key: "id", Value: sid}}
	id, err := ParseID(c, "id", "appointment")
	require.NoError(t, err)
	assert.Equal(t, sid, id.String())
}
