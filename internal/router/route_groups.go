package router

import (
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/permissions"

	"github.com/gin-gonic/gin"
)

func can(module permissions.Module, action permissions.Action) gin.HandlerFunc {
	return middleware.PermissionMiddleware(module, action)
}

// SetupPublicAuthRoutes sets up /register and /login. Register reads an
// optional token to decide whether the caller may create accounts.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterUser)
	group.POST("/login", authHandler.LoginUser)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupUserRoutes sets up the user management routes.
func SetupUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	{
		userRoutes.GET("", can(permissions.ModuleUsers, permissions.ActionView), authHandler.ListUsers)
		userRoutes.PATCH("/:id/role", can(permissions.ModuleUsers, permissions.ActionUpdate), authHandler.UpdateRole)
		userRoutes.PATCH("/:id/active", can(permissions.ModuleUsers, permissions.ActionUpdate), authHandler.SetActive)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	{
		orderRoutes.POST("", can(permissions.ModuleOrders, permissions.ActionCreate), orderHandler.CreateOrder)
		orderRoutes.GET("", can(permissions.ModuleOrders, permissions.ActionView), orderHandler.GetOrders)
		orderRoutes.GET("/:id", can(permissions.ModuleOrders, permissions.ActionView), orderHandler.GetOrderByID)
		orderRoutes.POST("/:id/items", can(permissions.ModuleOrders, permissions.ActionCreate), orderHandler.AddItems)
		orderRoutes.PATCH("/:id/items/:itemId/status", can(permissions.ModuleOrders, permissions.ActionUpdate), orderHandler.UpdateItemStatus)
		orderRoutes.PATCH("/:id/items/:itemId/quantity", can(permissions.ModuleOrders, permissions.ActionCreate), orderHandler.UpdateItemQuantity)
		orderRoutes.POST("/:id/close", can(permissions.ModulePayments, permissions.ActionCreate), orderHandler.CloseOrder)
		orderRoutes.POST("/:id/cancel", can(permissions.ModuleOrders, permissions.ActionDelete), orderHandler.CancelOrder)
		orderRoutes.POST("/:id/bill", can(permissions.ModulePayments, permissions.ActionCreate), orderHandler.RequestBill)
	}
}

// SetupInventoryRoutes sets up the inventory and stock movement routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, inventoryHandler *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	{
		inventoryRoutes.POST("", can(permissions.ModuleInventory, permissions.ActionCreate), inventoryHandler.CreateItem)
		inventoryRoutes.GET("", can(permissions.ModuleInventory, permissions.ActionView), inventoryHandler.GetItems)
		inventoryRoutes.GET("/movements", can(permissions.ModuleInventory, permissions.ActionView), inventoryHandler.GetMovements)
		inventoryRoutes.GET("/:id", can(permissions.ModuleInventory, permissions.ActionView), inventoryHandler.GetItemByID)
		inventoryRoutes.PUT("/:id", can(permissions.ModuleInventory, permissions.ActionUpdate), inventoryHandler.UpdateItem)
		inventoryRoutes.DELETE("/:id", can(permissions.ModuleInventory, permissions.ActionDelete), inventoryHandler.DeleteItem)
		inventoryRoutes.POST("/:id/stock", can(permissions.ModuleInventory, permissions.ActionUpdate), inventoryHandler.AddStock)
	}
}

// SetupTableMapRoutes sets up the floor plan routes.
func SetupTableMapRoutes(authenticatedGroup *gin.RouterGroup, tableMapHandler *handlers.TableMapHandler) {
	tableRoutes := authenticatedGroup.Group("/table-maps")
	{
		tableRoutes.POST("", can(permissions.ModuleTables, permissions.ActionCreate), tableMapHandler.CreateMap)
		tableRoutes.GET("", can(permissions.ModuleTables, permissions.ActionView), tableMapHandler.GetMaps)
		tableRoutes.GET("/:id", can(permissions.ModuleTables, permissions.ActionView), tableMapHandler.GetMapByID)
		tableRoutes.DELETE("/:id", can(permissions.ModuleTables, permissions.ActionDelete), tableMapHandler.DeleteMap)
		tableRoutes.POST("/:id/tables", can(permissions.ModuleTables, permissions.ActionCreate), tableMapHandler.AddTable)
		tableRoutes.DELETE("/:id/tables/:tableId", can(permissions.ModuleTables, permissions.ActionDelete), tableMapHandler.RemoveTable)
		tableRoutes.PATCH("/:id/tables/:tableId/status", can(permissions.ModuleTables, permissions.ActionUpdate), tableMapHandler.SetTableStatus)
	}
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(can(permissions.ModuleReports, permissions.ActionView))
	{
		reportRoutes.GET("/sales", reportHandler.GetSalesReport)
		reportRoutes.GET("/inventory", reportHandler.GetInventoryReport)
	}
}

// SetupLiveRoutes sets up the server-sent event streams.
func SetupLiveRoutes(authenticatedGroup *gin.RouterGroup, liveHandler *handlers.LiveHandler) {
	liveRoutes := authenticatedGroup.Group("/live")
	{
		liveRoutes.GET("/orders", can(permissions.ModuleOrders, permissions.ActionView), liveHandler.StreamOrders)
		liveRoutes.GET("/tables", can(permissions.ModuleTables, permissions.ActionView), liveHandler.StreamTables)
	}
}
