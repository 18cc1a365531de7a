package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/config"
	"finanzas/internal/database"
	"finanzas/internal/handlers"
	"finanzas/internal/logger"
	"finanzas/internal/middleware"
	"finanzas/internal/services"
	"finanzas/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	_ "finanzas/internal/docs" // Import swagger docs
)

// @title           finanzas API
// @version         1.0
// @description     finanzas is a personal finance backend: movements, categories, workspaces, monthly budgets and notifications.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey InternalKey
// @in header
// @name X-API-Key

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	appConfig, err := config.Load()
	if err != nil {
		// The logger is not configured yet; fall back to the default one.
		logger.Init(os.Getenv("ENV"))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(appConfig.Env)
	defer logger.Sync()
	log := logger.Get()

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations("migrations"); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	var publisher services.NotificationPublisher = services.NopPublisher{}
	if appConfig.AMQPURL != "" {
		client, err := amqp.NewClient(appConfig.AMQPURL, appConfig.AMQPExchange, appConfig.AMQPQueue)
		if err != nil {
			log.Warnf("AMQP unavailable, notifications will not be fanned out: %v", err)
		} else {
			defer client.Close()
			publisher = client
			log.Infow("AMQP publisher initialized", "exchange", appConfig.AMQPExchange)
		}
	} else {
		log.Info("AMQP disabled, notifications are stored only")
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	categoryService := services.NewCategoryService(db)
	workspaceService := services.NewWorkspaceService(db)
	movementService := services.NewMovementService(db)
	aggregationService := services.NewAggregationService(db)
	notificationService := services.NewNotificationService(db, publisher)
	dedup := services.NewNotificationDeduplicator(db, appConfig.DedupWindow, publisher)
	evaluator := services.NewBudgetEvaluator(aggregationService, dedup, appConfig.CategoryScopedSpend())
	budgetService := services.NewBudgetService(db, evaluator)
	scanner := services.NewDueDateScanner(db, dedup, appConfig.UpcomingDueDays)

	router := newRouter(appConfig, routerHandlers{
		auth:          handlers.NewAuthHandler(userService, auditService),
		budgets:       handlers.NewBudgetHandler(budgetService, auditService),
		notifications: handlers.NewNotificationHandler(notificationService, auditService),
		categories:    handlers.NewCategoryHandler(categoryService, auditService),
		movements:     handlers.NewMovementHandler(movementService, auditService),
		workspaces:    handlers.NewWorkspaceHandler(workspaceService, auditService),
		summary:       handlers.NewSummaryHandler(aggregationService),
		scan:          handlers.NewScanHandler(scanner),
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting finanzas backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		runDueScans(ctx, scanner, appConfig.DueScanInterval)
		return nil
	})

	return g.Wait()
}

// runDueScans runs one scan at startup and then one per interval until ctx
// is cancelled.
func runDueScans(ctx context.Context, scanner services.DueDateScanner, interval time.Duration) {
	log := logger.Get()
	log.Infow("Due-date scanner configured", "interval", interval.String())

	scan := func(now time.Time) {
		created, err := scanner.Scan(now)
		if err != nil {
			log.Errorw("Due-date scan failed", "error", err)
			return
		}
		log.Infow("Due-date scan complete", "created", created, "next_check", now.Add(interval).Format(time.TimeOnly))
	}

	scan(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			scan(now)
		}
	}
}

type routerHandlers struct {
	auth          *handlers.AuthHandler
	budgets       *handlers.BudgetHandler
	notifications *handlers.NotificationHandler
	categories    *handlers.CategoryHandler
	movements     *handlers.MovementHandler
	workspaces    *handlers.WorkspaceHandler
	summary       *handlers.SummaryHandler
	scan          *handlers.ScanHandler
}

func newRouter(appConfig *config.Config, h routerHandlers) *gin.Engine {
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.NoRoute(middleware.NoRoute())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/login", h.auth.Login)

	// Operator routes
	internal := v1.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(appConfig.InternalAPIKey))
	internal.POST("/scan", h.scan.RunDueScan)
	internal.POST("/notifications", h.notifications.AppendNotification)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", h.auth.GetProfile)

	budgets := protected.Group("/budgets")
	budgets.POST("", h.budgets.CreateBudget)
	budgets.GET("", h.budgets.GetBudgets)
	budgets.GET("/active", h.budgets.GetActiveBudgets)
	budgets.GET("/current-month", h.budgets.GetCurrentMonthBudgets)
	budgets.GET("/:id", h.budgets.GetBudget)
	budgets.PUT("/:id", h.budgets.UpdateBudget)
	budgets.DELETE("/:id", h.budgets.DeleteBudget)

	notifications := protected.Group("/notifications")
	notifications.GET("", h.notifications.GetNotifications)
	notifications.GET("/unread", h.notifications.GetUnreadNotifications)
	notifications.GET("/unread/count", h.notifications.CountUnread)
	notifications.PATCH("/read-all", h.notifications.MarkAllRead)
	notifications.PATCH("/:id/read", h.notifications.MarkRead)
	notifications.DELETE("/:id", h.notifications.DeleteNotification)

	categories := protected.Group("/categories")
	categories.POST("", h.categories.CreateCategory)
	categories.GET("", h.categories.GetUserCategories)
	categories.GET("/:id", h.categories.GetCategoryByID)
	categories.PUT("/:id", h.categories.UpdateCategory)
	categories.DELETE("/:id", h.categories.DeleteCategory)

	movements := protected.Group("/movements")
	movements.POST("", h.movements.CreateMovement)
	movements.GET("", h.movements.GetMovements)
	movements.GET("/:id", h.movements.GetMovement)
	movements.PUT("/:id", h.movements.UpdateMovement)
	movements.PATCH("/:id/paid", h.movements.MarkPaid)
	movements.PATCH("/:id/pending", h.movements.MarkPending)
	movements.DELETE("/:id", h.movements.DeleteMovement)

	workspaces := protected.Group("/workspaces")
	workspaces.POST("", h.workspaces.CreateWorkspace)
	workspaces.GET("", h.workspaces.GetWorkspaces)
	workspaces.GET("/active", h.workspaces.GetActiveWorkspaces)
	workspaces.GET("/principal", h.workspaces.GetPrincipalWorkspace)
	workspaces.GET("/:id", h.workspaces.GetWorkspace)
	workspaces.PUT("/:id", h.workspaces.UpdateWorkspace)
	workspaces.PATCH("/:id/principal", h.workspaces.SetPrincipal)
	workspaces.DELETE("/:id", h.workspaces.DeleteWorkspace)

	summary := protected.Group("/summary")
	summary.GET("", h.summary.GetSummary)
	summary.GET("/categories", h.summary.GetCategoryTotals)
	summary.GET("/period", h.summary.GetPeriodTotal)

	return router
}
