package router

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/frontdesk/internal/handler"
	"github.com/jwalitptl/frontdesk/internal/handler/health"
	prometheushandler "github.com/jwalitptl/frontdesk/internal/handler/prometheus"
	"github.com/jwalitptl/frontdesk/internal/middleware"
	"github.com/jwalitptl/frontdesk/internal/session"
	"github.com/jwalitptl/frontdesk/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(gin.IRouter)
}

type Router struct {
	engine *gin.Engine
	base   *handler.BaseHandler
	health *health.Handler
	pages  []Handler
	config RouterConfig
}

type RouterConfig struct {
	Templates *template.Template

	// RateLimit of zero disables rate limiting.
	RateLimit rate.Limit
	RateBurst int

	RequestTimeout time.Duration
	MaxBodyBytes   int64

	SessionCookie string
	SecureCookie  bool

	Metrics *metrics.Metrics
	// Gatherer, when set, is served at MetricsPath.
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

func NewRouter(config RouterConfig, base *handler.BaseHandler, healthH *health.Handler, pages ...Handler) *Router {
	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if config.Templates != nil {
		engine.SetHTMLTemplate(config.Templates)
	}

	r := &Router{
		engine: engine,
		base:   base,
		health: healthH,
		pages:  pages,
		config: config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorLogger(),
		config.Metrics.Middleware(),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

// Setup registers every route.
func (r *Router) Setup() {
	if r.health != nil {
		r.health.RegisterRoutes(r.engine)
	}
	if r.config.Gatherer != nil {
		path := r.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.engine.GET(path, prometheushandler.New(r.config.Gatherer).Handler())
	}

	sizeLimit := middleware.DefaultSizeLimitConfig()
	if r.config.MaxBodyBytes > 0 {
		sizeLimit.MaxBodySize = r.config.MaxBodyBytes
	}
	timeout := middleware.DefaultTimeoutConfig()
	if r.config.RequestTimeout > 0 {
		timeout.Duration = r.config.RequestTimeout
	}
	cookie := r.config.SessionCookie
	if cookie == "" {
		cookie = "frontdesk_session"
	}

	pages := r.engine.Group("")
	pages.Use(
		middleware.Cache(middleware.DefaultCacheConfig()),
		middleware.SizeLimit(sizeLimit),
		middleware.Timeout(timeout),
		session.Middleware(cookie, r.config.SecureCookie),
	)

	pages.GET("/", r.base.Home)
	for _, h := range r.pages {
		h.RegisterRoutes(pages)
	}

	r.engine.NoRoute(session.Middleware(cookie, r.config.SecureCookie), func(c *gin.Context) {
		r.base.Render(c, http.StatusNotFound, "error.html", "Not found", gin.H{"Message": "Page not found"})
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
