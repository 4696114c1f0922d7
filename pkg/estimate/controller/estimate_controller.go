package controller

import "github.com/labstack/echo/v4"

type EstimateController interface {
	Dashboard(c echo.Context) error
	SubmitForm(c echo.Context) error
	EstimateJSON(c echo.Context) error
}
