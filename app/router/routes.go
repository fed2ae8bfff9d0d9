// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ymgch/mitsumori/app/dto"
	"github.com/ymgch/mitsumori/app/handlers"
	"github.com/ymgch/mitsumori/app/middleware"
	"github.com/ymgch/mitsumori/config"
	"github.com/ymgch/mitsumori/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                *fiber.App
	cfg                *config.ProductionConfig
	webhookHandler     handlers.WebhookHandlerInterface
	catalogFormHandler handlers.CatalogFormHandlerInterface
	orderFormHandler   handlers.OrderFormHandlerInterface
	signature          *middleware.SignatureMiddleware
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	webhookHandler handlers.WebhookHandlerInterface,
	catalogFormHandler handlers.CatalogFormHandlerInterface,
	orderFormHandler handlers.OrderFormHandlerInterface,
	signature *middleware.SignatureMiddleware,
) Router {
	// Configure Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Mitsumori Bot",
		ServerHeader: "Mitsumori",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                app,
		cfg:                cfg,
		webhookHandler:     webhookHandler,
		catalogFormHandler: catalogFormHandler,
		orderFormHandler:   orderFormHandler,
		signature:          signature,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Liveness probe. The uptime monitor matches on the body text, so
	// the wording stays fixed.
	r.app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("LINE Bot is running.")
	})

	r.app.Get("/healthz", r.healthCheck)

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Route documentation (development only)
	if r.cfg.IsDevelopment() {
		r.app.Get("/docs", r.getAPIDocumentation)
		log.Println("Route documentation enabled for development")
	}

	// Webhook deliveries are authenticated by signature instead of rate
	// limiting; throttling them only delays the platform's retries.
	r.app.Post("/line/callback", r.webhookHandler.Callback, r.signature.Verify())

	// Public forms
	r.app.Get("/catalog_form", r.catalogFormHandler.ShowForm)
	r.app.Get("/web_order_form", r.orderFormHandler.ShowForm)

	// Form submissions share one stricter limiter
	formLimiter := limiter.New(limiter.Config{
		Max:        r.cfg.Security.FormRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).
				SendString("送信回数が多すぎます。しばらくしてからもう一度お試しください。")
		},
	})
	r.app.Post("/submit_form", r.catalogFormHandler.SubmitForm, formLimiter)
	r.app.Post("/submit_web_order_form", r.orderFormHandler.SubmitForm, formLimiter)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         r.cfg.Security.XSSProtection,
		ContentTypeNosniff:    r.cfg.Security.XContentTypeOptions,
		XFrameOptions:         r.cfg.Security.XFrameOptions,
		HSTSMaxAge:            31536000, // 1 year
		HSTSExcludeSubdomains: false,
		ContentSecurityPolicy: r.cfg.Security.CSPPolicy,
		ReferrerPolicy:        r.cfg.Security.ReferrerPolicy,
		XDNSPrefetchControl:   "off",
		XDownloadOptions:      "noopen",
		XPermittedCrossDomain: "none",
	}))

	// CORS middleware; the forms and webhook are same-origin, so this
	// only applies when origins are configured explicitly.
	if len(r.cfg.Security.AllowedOrigins) > 0 {
		r.app.Use(cors.New(cors.Config{
			AllowOrigins:     r.cfg.Security.AllowedOrigins,
			AllowMethods:     r.cfg.Security.AllowedMethods,
			AllowHeaders:     r.cfg.Security.AllowedHeaders,
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: r.cfg.Security.AllowCredentials,
			MaxAge:           r.cfg.Security.CORSMaxAge,
		}))
	}

	// Compression middleware for performance
	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.Level(r.cfg.Server.CompressionLevel),
		}))
	}

	// General rate limiting. The webhook and probe endpoints are exempt.
	r.app.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			switch c.Path() {
			case "/", "/healthz", r.cfg.Metrics.Path, "/line/callback":
				return true
			}
			return false
		},
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Probe endpoints would drown the log
			return c.Path() == "/" || c.Path() == "/healthz"
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "mitsumori-bot",
		},
	})
}

// Route documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	docs := GetRouteDocumentation()
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Route documentation retrieved successfully",
		Data: fiber.Map{
			"title":       "Mitsumori Bot Routes",
			"version":     r.cfg.Deployment.Version,
			"description": "LINE estimate bot webhook and order form endpoints",
			"endpoints":   docs,
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetRouteDocumentation returns route documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "POST",
			"path":        "/line/callback",
			"description": "LINE Messaging API webhook receiver (signature verified)",
			"parameters": map[string]any{
				"destination": "string - Bot user ID the delivery is addressed to",
				"events":      "array (required) - Message and postback events",
			},
		},
		{
			"method":      "GET",
			"path":        "/catalog_form",
			"description": "Catalog application form with a one-time token",
			"parameters":  map[string]any{},
		},
		{
			"method":      "POST",
			"path":        "/submit_form",
			"description": "Catalog application submission",
			"parameters": map[string]any{
				"form_token":   "string (required) - One-time token from GET /catalog_form",
				"name":         "string (required) - Applicant name",
				"postal_code":  "string (required) - Postal code",
				"address_1":    "string (required) - Prefecture and municipality",
				"address_2":    "string (required) - Street address and room number",
				"phone":        "string (required) - Phone number",
				"email":        "string (required) - Email address",
				"sns_account":  "string (required) - Instagram or TikTok account name",
				"school_grade": "string (optional) - School and grade",
				"other":        "string (optional) - Free-form notes",
			},
		},
		{
			"method":      "GET",
			"path":        "/web_order_form",
			"description": "Web order form, prefilled from a saved draft or quote",
			"parameters": map[string]any{
				"quote_no": "string (optional) - Quote number to prefill from",
				"uid":      "string (optional) - LINE user ID for order notifications",
			},
		},
		{
			"method":      "POST",
			"path":        "/submit_web_order_form",
			"description": "Web order submission, saved as draft or confirmed order",
			"parameters": map[string]any{
				"submit_mode": "string (optional) - draft|final (default: final)",
				"orderNo":     "string (optional) - Existing order number when resubmitting",
				"lineUserId":  "string (optional) - LINE user ID for the confirmation push",
			},
		},
		{
			"method":      "GET",
			"path":        "/healthz",
			"description": "Health check endpoint",
			"parameters":  map[string]any{},
		},
		{
			"method":      "GET",
			"path":        "/metrics",
			"description": "Prometheus metrics endpoint",
			"parameters":  map[string]any{},
		},
	}
}
