package http

import (
	"log/slog"
	"strings"

	"github.com/geocoder89/eventsapp/internal/auth"
	"github.com/geocoder89/eventsapp/internal/http/handlers"
	"github.com/geocoder89/eventsapp/internal/http/middlewares"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func init() {
	// unknown JSON fields are a 400, not silently dropped
	binding.EnableDecoderDisallowUnknownFields = true
}

type Deps struct {
	Env         string
	ServiceName string

	Tokens   *auth.Manager
	Handlers Handlers
	Checks   map[string]handlers.Check

	Prom       *observability.Prom
	Gatherer   prometheus.Gatherer
	AuthLimit  *middlewares.RateLimiter
	CORS       []string
	MaxBody    int64
	TracingOff bool

	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
}

func NewRouter(log *slog.Logger, d Deps) (*gin.Engine, RouteTable) {
	if log == nil {
		log = slog.Default()
	}
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// nil trusts no proxy: ClientIP is the socket peer and X-Forwarded-For is ignored
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", "proxies", d.TrustedProxies, "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Observers wrap ErrorHandler so they read the status it wrote.
	r.Use(middlewares.RequestID())
	if !d.TracingOff {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// every middleware below can fail through ErrorHandler
	r.Use(middlewares.ErrorHandler(log))
	r.Use(middlewares.Recovery())
	r.Use(middlewares.CORSMiddleware(d.CORS))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(d.MaxBody))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(middlewares.NoRoute)

	// ops
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	table := Routes(d.Handlers)

	authMW := middlewares.NewAuthMiddleware(d.Tokens)

	var accessObs middlewares.AccessObserver
	if d.Prom != nil {
		accessObs = d.Prom
	}
	gate := middlewares.Authorize(table.Lookup, accessObs)

	for _, rt := range table {
		chain := make([]gin.HandlerFunc, 0, 4)

		if rt.Public {
			if d.AuthLimit != nil && strings.HasPrefix(rt.Path, "/auth/") {
				chain = append(chain, d.AuthLimit.RateLimiterMiddleware(middlewares.KeyByIP))
			}
		} else {
			chain = append(chain, authMW.RequireAuth(), gate)
		}

		chain = append(chain, rt.Handler)
		r.Handle(rt.Method, rt.Path, chain...)
	}

	return r, table
}
