package router

import (
	"database/sql"

	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// TokenService issues and validates access tokens.
type TokenService interface {
	middleware.TokenValidator
	services.TokenIssuer
}

// Dependencies are the collaborators the router wires into handlers.
// Notifier, Changes and Feed may be nil.
type Dependencies struct {
	DB       *sql.DB
	Tokens   TokenService
	Notifier services.Notifier
	Changes  services.ChangePublisher
	Feed     handlers.LiveSubscriber
}

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Orders    *handlers.OrderHandler
	Inventory *handlers.InventoryHandler
	TableMaps *handlers.TableMapHandler
	Reports   *handlers.ReportHandler
	Live      *handlers.LiveHandler
}

// Build initializes repositories, services and handlers.
func Build(deps Dependencies) Handlers {
	db := deps.DB

	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	inventoryRepo := repositories.NewInventoryRepository(db)
	movementRepo := repositories.NewInventoryMovementRepository(db)
	tableMapRepo := repositories.NewTableMapRepository(db)
	tx := repositories.NewTransactor(db)

	// Initialize Services
	adjuster := services.NewStockAdjuster(inventoryRepo, movementRepo)
	authService := services.NewAuthService(authRepo, tx, deps.Tokens)
	tableService := services.NewTableService(tableMapRepo, tx, deps.Notifier, deps.Changes)
	orderService := services.NewOrderService(orderRepo, inventoryRepo, adjuster, tableService, tx, deps.Notifier, deps.Changes)
	inventoryService := services.NewInventoryService(inventoryRepo, movementRepo, adjuster, tx, deps.Notifier, deps.Changes)
	reportService := services.NewReportService(orderRepo, inventoryRepo)

	// Initialize Handlers
	return Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Orders:    handlers.NewOrderHandler(orderService),
		Inventory: handlers.NewInventoryHandler(inventoryService),
		TableMaps: handlers.NewTableMapHandler(tableService),
		Reports:   handlers.NewReportHandler(reportService),
		Live:      handlers.NewLiveHandler(deps.Feed, orderService, tableService),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	Register(engine, deps.Tokens, Build(deps))
}

// Register mounts h under /api/v1.
func Register(engine *gin.Engine, tokens middleware.TokenValidator, h Handlers) {
	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth", middleware.OptionalAuthMiddleware(tokens)), h.Auth)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(tokens))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.Auth)
		SetupUserRoutes(authenticated, h.Auth)
		SetupOrderRoutes(authenticated, h.Orders)
		SetupInventoryRoutes(authenticated, h.Inventory)
		SetupTableMapRoutes(authenticated, h.TableMaps)
		SetupReportRoutes(authenticated, h.Reports)
		SetupLiveRoutes(authenticated, h.Live)
	}
}
