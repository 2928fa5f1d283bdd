package router

import (
	"fmt"
	"net/http"

	_ "github.com/erp/fulfillment/docs"
	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/erp/fulfillment/internal/interfaces/http/dto"
	"github.com/erp/fulfillment/internal/interfaces/http/handler"
	"github.com/erp/fulfillment/internal/interfaces/http/middleware"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// FulfillmentPrefix is the group every fulfillment route lives under
const FulfillmentPrefix = "/fulfillment"

// EngineConfig carries everything needed to assemble the HTTP engine
type EngineConfig struct {
	Logger         *zap.Logger
	TokenValidator middleware.TokenValidator
	MaxBodySize    int64
	TrustedProxies []string

	ServiceName    string
	TracingEnabled bool
	TracerProvider trace.TracerProvider
	Meter          metric.Meter

	Swagger middleware.SwaggerConfig

	Fulfillment *handler.FulfillmentHandler
	Outbox      *handler.OutboxHandler
	System      *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware chain and the
// fulfillment routes mounted under /api/v1/fulfillment
func NewEngine(cfg EngineConfig) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	httpMetrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("create http metrics: %w", err)
	}

	r := NewRouter(engine)
	healthPath := "/api/" + r.apiVersion + FulfillmentPrefix + "/health"
	jwtConfig := middleware.JWTMiddlewareConfig{Validator: cfg.TokenValidator, Logger: log}
	authenticate := middleware.JWTAuthMiddleware(jwtConfig)
	jwtConfig.SkipPaths = []string{healthPath}
	jwtConfig.SkipPathPrefixes = []string{middleware.SwaggerPath + "/"}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.TracingEnabled,
			TracerProvider: cfg.TracerProvider,
		}),
		httpMetrics,
		middleware.JWTAuthMiddleware(jwtConfig),
		middleware.SpanAttributes(),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "route not found", middleware.GetRequestID(c)))
	})

	// The docs route answers 404 itself when disabled
	engine.GET(middleware.SwaggerPath+"/*any",
		middleware.SwaggerProtection(cfg.Swagger, authenticate),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.Register(FulfillmentRoutes(cfg.Fulfillment, cfg.System))
	if cfg.Outbox != nil {
		r.Register(OutboxRoutes(cfg.Outbox))
	}
	r.Setup()
	return engine, nil
}

// FulfillmentRoutes declares the fulfillment API. Services repeat the role
// checks; the route guards reject early without opening a transaction.
func FulfillmentRoutes(h *handler.FulfillmentHandler, sys *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("fulfillment", FulfillmentPrefix)

	if sys != nil {
		g.GET("/health", sys.Health)
	}
	if h == nil {
		return g
	}

	g.POST("/orders/submit", h.SubmitOrder)
	g.GET("/orders/:id/audit", middleware.RequireRoles(fulfillment.FinanceRoles...), h.ListAudit)

	g.Group("warehouse", "/warehouse").
		Use(middleware.RequireRoles(fulfillment.WarehouseRoles...)).
		POST("/advance", h.AdvanceWarehouseTask)

	g.Group("shipments", "/shipments").
		Use(middleware.RequireRoles(fulfillment.WarehouseRoles...)).
		POST("", h.CreateShipment)

	g.Group("invoices", "/invoices").
		Use(middleware.RequireRoles(fulfillment.FinanceRoles...)).
		POST("/finalize", h.FinalizeInvoice)

	g.Group("payments", "/payments").
		Use(middleware.RequireRoles(fulfillment.FinanceRoles...)).
		POST("", h.RecordPayment)

	return g
}

// OutboxRoutes declares the admin-only outbox delivery endpoints
func OutboxRoutes(h *handler.OutboxHandler) *DomainGroup {
	g := NewDomainGroup("outbox", FulfillmentPrefix+"/outbox").
		Use(middleware.RequireRoles(fulfillment.RoleAdmin))

	g.GET("/stats", h.Stats)
	g.GET("/dead", h.ListDead)
	g.POST("/dead/:id/retry", h.Retry)
	g.POST("/retry-dead", h.RetryAll)
	return g
}
