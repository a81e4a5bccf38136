package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/care-records/internal/config"
	"github.com/iliyamo/care-records/internal/handler"
	"github.com/iliyamo/care-records/internal/logger"
	"github.com/iliyamo/care-records/internal/metrics"
	"github.com/iliyamo/care-records/internal/middleware"
	"github.com/iliyamo/care-records/internal/model"
)

// Deps carries everything the router mounts.  Handlers left nil are not
// mounted, which lets tests build a router with only the parts they need.
type Deps struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Metrics   *metrics.Metrics

	Auth      *handler.AuthHandler
	Users     *handler.UserAdminHandler
	Directory *handler.DirectoryHandler
	Slots     *handler.SlotHandler

	PatrolRounds          *handler.CareRecordHandler[model.PatrolRound, *model.PatrolRound]
	DiaperChanges         *handler.CareRecordHandler[model.DiaperChangeRecord, *model.DiaperChangeRecord]
	RestraintObservations *handler.CareRecordHandler[model.RestraintObservationRecord, *model.RestraintObservationRecord]
	PositionChanges       *handler.CareRecordHandler[model.PositionChangeRecord, *model.PositionChangeRecord]
	HygieneRecords        *handler.CareRecordHandler[model.HygieneRecord, *model.HygieneRecord]
	IntakeOutput          *handler.IntakeOutputHandler
}

// New builds the Echo instance with global middleware and all API routes.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger = logger.NewEchoLogger(logrus.StandardLogger())
	e.Validator = handler.NewRequestValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.HTTPLogger())
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	// "*" with credentials echoes the caller's origin.
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:                             d.Config.CORSAllowOrigins,
		AllowCredentials:                         true,
		UnsafeWildcardOriginWithAllowCredentials: true,
	}))
	e.Use(echomw.Secure())

	RegisterRoutes(e, d.Metrics)

	api := e.Group("/api")
	// The limiter runs after JWTAuth so user-keyed strategies see the caller.
	rl := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	authed := []echo.MiddlewareFunc{middleware.JWTAuth(d.Config.JWTSecret), rl}
	if d.Auth != nil {
		RegisterAuth(api, d.Auth, rl, authed)
	}
	if d.Users != nil {
		RegisterUsers(api, d.Users, authed)
	}
	if d.Directory != nil {
		RegisterDirectory(api, d.Directory, authed, middleware.NewRedisCache(d.Cache, d.Redis))
	}
	if d.Slots != nil {
		api.GET("/care-slots", d.Slots.CareSlots, authed...)
	}
	registerCareRecords(api, "/patrol-rounds", d.PatrolRounds, authed)
	registerCareRecords(api, "/diaper-changes", d.DiaperChanges, authed)
	registerCareRecords(api, "/restraint-observations", d.RestraintObservations, authed)
	registerCareRecords(api, "/position-changes", d.PositionChanges, authed)
	registerCareRecords(api, "/hygiene-records", d.HygieneRecords, authed)
	if d.IntakeOutput != nil {
		RegisterIntakeOutput(api, d.IntakeOutput, authed)
	}
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// sit outside rate limiting and caching.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics) {
	e.GET("/api/health", handler.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth mounts /auth.  Login, QR login, refresh and logout are public
// and limited per caller; logout also accepts a bearer token which the handler
// inspects itself.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, rl echo.MiddlewareFunc, authed []echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/login", a.Login, rl)
	g.POST("/qr-login", a.QRLogin, rl)
	g.POST("/refresh", a.Refresh, rl)
	g.POST("/logout", a.Logout, rl)

	g.GET("/me", a.Me, authed...)
	g.POST("/change-password", a.ChangePassword, authed...)
}

// RegisterUsers mounts account administration for admins and developers.
func RegisterUsers(api *echo.Group, u *handler.UserAdminHandler, authed []echo.MiddlewareFunc) {
	mw := append(append([]echo.MiddlewareFunc{}, authed...), middleware.RequireRole(model.RoleAdmin, model.RoleDeveloper))
	g := api.Group("/users", mw...)
	g.POST("", u.Create)
	g.POST("/:id/reset-password", u.ResetPassword)
	g.POST("/:id/qr-code", u.RegenerateQRCode)
}

// RegisterDirectory mounts the read-only facility directory.  The routes
// span several prefixes, so auth and cache are attached per route.
// Hospital status depends on the current time and is never cached.
func RegisterDirectory(api *echo.Group, h *handler.DirectoryHandler, authed []echo.MiddlewareFunc, cache echo.MiddlewareFunc) {
	mw := append(append([]echo.MiddlewareFunc{}, authed...), cache)
	api.GET("/patients", h.Patients, mw...)
	api.GET("/patients/:id/care-tabs", h.CareTabs, mw...)
	api.GET("/patients/:id/hospital-status", h.HospitalStatus, authed...)
	api.GET("/stations", h.Stations, mw...)
	api.GET("/beds", h.Beds, mw...)
	api.GET("/beds/qr/:qrCodeId", h.BedByQRCode, mw...)
	api.GET("/beds/:id/patient", h.PatientInBed, mw...)
	api.GET("/health-assessments", h.HealthAssessments, mw...)
	api.GET("/restraint-assessments", h.RestraintAssessments, mw...)
	api.GET("/admission-records", h.AdmissionRecords, mw...)
}

func registerCareRecords[T any, PT interface {
	*T
	model.CareRecord
}](api *echo.Group, prefix string, h *handler.CareRecordHandler[T, PT], authed []echo.MiddlewareFunc) {
	if h == nil {
		return
	}
	g := api.Group(prefix, authed...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

// RegisterIntakeOutput mounts intake/output records and their items.
func RegisterIntakeOutput(api *echo.Group, h *handler.IntakeOutputHandler, authed []echo.MiddlewareFunc) {
	g := api.Group("/intake-output-records", authed...)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Patch)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/summary", h.Summary)

	g.POST("/:id/intake-items", h.AddIntakeItems)
	g.GET("/:id/intake-items", h.ListIntakeItems)
	g.POST("/:id/output-items", h.AddOutputItems)
	g.GET("/:id/output-items", h.ListOutputItems)

	api.DELETE("/intake-items/:itemId", h.DeleteIntakeItem, authed...)
	api.DELETE("/output-items/:itemId", h.DeleteOutputItem, authed...)
}
