package router

import (
	"github.com/labstack/echo/v4"

	"carprice/pkg/middleware"
)

func New(
	e *echo.Echo,
	estimateCtrl interface {
		Dashboard(echo.Context) error
		SubmitForm(echo.Context) error
		EstimateJSON(echo.Context) error
	},
	healthCtrl interface{ Health(echo.Context) error },
) *echo.Echo {
	e.Use(middleware.RequestID())

	e.GET("/", estimateCtrl.Dashboard)
	e.POST("/estimate", estimateCtrl.SubmitForm)
	e.GET("/health", healthCtrl.Health)

	api := e.Group("/api/v1")
	api.POST("/estimate", estimateCtrl.EstimateJSON)
	return e
}
