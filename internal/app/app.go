package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mijwel-dev/chatter-backend/internal/config"
	"github.com/mijwel-dev/chatter-backend/internal/handler"
	"github.com/mijwel-dev/chatter-backend/internal/repository"
	"github.com/mijwel-dev/chatter-backend/internal/service"
	"github.com/mijwel-dev/chatter-backend/internal/utils"
	"github.com/mijwel-dev/chatter-backend/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	auth    *handler.AuthHandler
	user    *handler.UserHandler
	friend  *handler.FriendHandler
	message *handler.MessageHandler
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	tokenManager := utils.NewTokenManager(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessExpiry.Duration,
		cfg.Auth.RefreshExpiry.Duration,
	)

	userCache := service.NewUserCache(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.User,
		repos.Session,
		tokenManager,
		userCache,
		infra.Mailer(),
		cfg.Security.BCryptCost,
	)
	userService := service.NewUserService(repos.User, tokenManager, userCache, cfg.Security.BCryptCost)
	friendService := service.NewFriendService(repos.Friend, repos.User, userCache)
	messageService := service.NewMessageService(repos.Message, repos.User, userCache)

	cookies := handler.NewCookieWriter(
		cfg.Env == "production",
		cfg.Auth.AccessExpiry.Duration,
		cfg.Auth.RefreshExpiry.Duration,
	)

	h := handlers{
		auth:    handler.NewAuthHandler(authService, cookies),
		user:    handler.NewUserHandler(userService, cookies),
		friend:  handler.NewFriendHandler(friendService),
		message: handler.NewMessageHandler(messageService),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chatter-backend"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, h, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	throttle := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
	)
	authorized := handler.AuthAccess(authService)
	setupDone := handler.RequireSetup()

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/sign-up", throttle, h.auth.SignUp)
			auth.POST("/verify-email", throttle, h.auth.VerifyEmail)
			auth.POST("/sign-in", throttle, h.auth.SignIn)
			auth.GET("/refresh", h.auth.Refresh)
			auth.DELETE("/sign-out", authorized, h.auth.SignOut)
			auth.DELETE("/purge-sessions", authorized, h.auth.PurgeSessions)
			auth.POST("/forgot-password", throttle, h.auth.ForgotPassword)
			auth.POST("/reset-password", throttle, h.auth.ResetPassword)
		}

		user := api.Group("/user", authorized)
		{
			user.POST("/profile-setup", h.user.ProfileSetup)
			user.PATCH("/change-password", h.user.ChangePassword)
			user.GET("/information", h.user.Information)
			user.GET("/search", setupDone, h.user.Search)
		}

		friend := api.Group("/friend", authorized, setupDone)
		{
			friend.POST("/request/:id", h.friend.SendRequest)
			friend.PATCH("/request/:id", h.friend.HandleRequest)
			friend.DELETE("/request/:id", h.friend.RetrieveRequest)
			friend.GET("/pending", h.friend.Pending)
			friend.DELETE("/unfriend/:id", h.friend.Unfriend)
			friend.GET("/fetch", h.friend.Friends)
		}

		message := api.Group("/message", authorized, setupDone)
		{
			message.GET("/get/:id", h.message.Get)
			message.POST("/send/:id", h.message.Send)
			message.PATCH("/edit/:id", h.message.Edit)
			message.DELETE("/delete/:id", h.message.Delete)
			message.DELETE("/delete-old", h.message.DeleteOld)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
