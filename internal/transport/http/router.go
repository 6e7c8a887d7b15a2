package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesobkitchen/orderdesk/internal/handlers"
	"github.com/mesobkitchen/orderdesk/internal/jwtmiddleware"
	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/session"
)

type Deps struct {
	Session       *session.Session
	AuthHandler   *handlers.AuthHandler
	CartHandler   *handlers.CartHandler
	DriverHandler *handlers.DriverHandler
	WaiterHandler *handlers.WaiterHandler
	AdminHandler  *handlers.AdminHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)
	v1.GET("/me", d.AuthHandler.Me)

	cart := v1.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/:id", d.CartHandler.SetQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveFromCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	v1.POST("/checkout", d.CartHandler.Checkout)

	driver := v1.Group("/driver", jwtmiddleware.RequireRole(d.Session, models.RoleDriver, models.RoleAdmin))
	driver.GET("", d.DriverHandler.Dashboard)
	driver.POST("/deliver/:id", d.DriverHandler.Deliver)

	waiter := v1.Group("/waiter", jwtmiddleware.RequireRole(d.Session, models.RoleWaiter, models.RoleAdmin))
	waiter.GET("", d.WaiterHandler.Dashboard)
	waiter.POST("/advance/:id", d.WaiterHandler.Advance)
	waiter.POST("/cancel/:id", d.WaiterHandler.Cancel)

	admin := v1.Group("/admin", jwtmiddleware.RequireRole(d.Session, models.RoleAdmin))
	admin.GET("", d.AdminHandler.Dashboard)
	admin.DELETE("/orders/:id", d.AdminHandler.DeleteOrder)
}
