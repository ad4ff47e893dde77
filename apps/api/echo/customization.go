package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
)

type customizationApi struct {
	svc      mission.Service
	classSvc classroom.Service
	validate *validator.Validate
}

func registerCustomizationAPI(g *echo.Group, deps ServerDeps) {
	api := customizationApi{
		svc:      deps.MissionSvc,
		classSvc: deps.ClassSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/classes/:class_id/missions/:id/customization",
		roleMiddleware(authorRoles...), missionMiddleware(api.svc), api.manageMiddleware)
	cg.GET("", api.retrieve)
	cg.PUT("", api.update)
	cg.DELETE("", api.destroy)
}

// manageMiddleware lets through the class's managers, for missions of the class's catalog.
func (api *customizationApi) manageMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		m, err := getContextMission(ctx)
		if err != nil {
			return err
		}
		if _, err = classMissionAccess(ctx, api.classSvc, m, ctx.Param("class_id"), true); err != nil {
			return err
		}
		return next(ctx)
	}
}

// Handlers

func (api *customizationApi) retrieve(ctx echo.Context) error {
	m, err := getContextMission(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetCustomization(ctx.Request().Context(), ctx.Param("class_id"), m.ID)
	if err != nil {
		return errors.Wrap(err, "finding customization")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *customizationApi) update(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	m, err := getContextMission(ctx)
	if err != nil {
		return err
	}

	var data mission.CustomizationInput
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CustomizationInput")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	data.UpdatedBy = prof.ID

	c, err := api.svc.UpsertCustomization(ctx.Request().Context(), ctx.Param("class_id"), m.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving customization")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *customizationApi) destroy(ctx echo.Context) error {
	m, err := getContextMission(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCustomization(ctx.Request().Context(), ctx.Param("class_id"), m.ID); err != nil {
		return errors.Wrap(err, "deleting customization")
	}
	return ctx.NoContent(http.StatusNoContent)
}
