package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
)

const contextMissionKey = "mission"

var authorRoles = []string{user.RoleAdmin, user.RoleEducator}

type missionApi struct {
	svc      mission.Service
	classSvc classroom.Service
	validate *validator.Validate
}

func registerMissionAPI(g *echo.Group, deps ServerDeps) {
	api := missionApi{
		svc:      deps.MissionSvc,
		classSvc: deps.ClassSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/missions")
	mg.GET("", api.query, roleMiddleware(authorRoles...))
	mg.POST("", api.create, roleMiddleware(authorRoles...))
	mg.DELETE("", api.destroy, roleMiddleware(authorRoles...))

	// detail endpoints
	dg := mg.Group("/:id", missionMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, roleMiddleware(authorRoles...))

	// a class's view of a mission
	g.GET("/classes/:class_id/missions/:id", api.retrieveForClass, missionMiddleware(api.svc))
}

// Handlers

func (api *missionApi) query(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	filter := new(mission.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []mission.Mission{})
	}
	filter.Clean()
	// visibility is never client-controlled
	filter.AllOrgs = prof.IsAdmin()
	filter.OrgID = prof.OrgID.String
	ordering := new(Ordering)
	ordering.Bind(ctx)

	missions, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying missions")
	}
	if missions == nil {
		missions = []mission.Mission{}
	}
	return ctx.JSON(http.StatusOK, missions)
}

func (api *missionApi) create(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var data mission.NewMission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMission")
	}
	// educators author missions for their organization only
	if !prof.IsAdmin() {
		if !prof.OrgID.Valid {
			return errHttpForbidden
		}
		data.OrgID = prof.OrgID.String
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	data.CreatedBy = prof.ID

	m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating mission")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *missionApi) destroy(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	var filter mission.GetFilter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to GetFilter")
	}
	m, err := api.svc.Find(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "finding mission")
	}
	if !m.EditableBy(prof) {
		return errHttpForbidden
	}

	if err = api.svc.Delete(ctx.Request().Context(), m.ID); err != nil {
		return errors.Wrap(err, "deleting mission")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// retrieve serves the effective mission, for the class `class_id` when given.
func (api *missionApi) retrieve(ctx echo.Context) error {
	if classID := ctx.QueryParam("class_id"); classID != "" {
		return api.effectiveForClass(ctx, classID)
	}

	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	m, err := getContextMission(ctx)
	if err != nil {
		return err
	}
	// students only read missions through their classes
	if prof.IsStudent() || !m.VisibleTo(prof) {
		return errHttpNotFound
	}

	eff, err := api.svc.Effective(ctx.Request().Context(), m.ID, "")
	if err != nil {
		return errors.Wrap(err, "building effective mission")
	}
	return ctx.JSON(http.StatusOK, eff)
}

func (api *missionApi) retrieveForClass(ctx echo.Context) error {
	return api.effectiveForClass(ctx, ctx.Param("class_id"))
}

func (api *missionApi) effectiveForClass(ctx echo.Context, classID string) error {
	m, err := getContextMission(ctx)
	if err != nil {
		return err
	}
	if _, err = classMissionAccess(ctx, api.classSvc, m, classID, false); err != nil {
		return err
	}

	eff, err := api.svc.Effective(ctx.Request().Context(), m.ID, classID)
	if err != nil {
		return errors.Wrap(err, "building effective mission")
	}
	return ctx.JSON(http.StatusOK, eff)
}

func (api *missionApi) update(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	m, err := getContextMission(ctx)
	if err != nil {
		return err
	}
	if !m.EditableBy(prof) {
		return errHttpForbidden
	}

	var data mission.UpdateMission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err = api.svc.Update(ctx.Request().Context(), m.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating mission")
	}
	return ctx.JSON(http.StatusOK, m)
}

// Middlewares & helpers

// missionMiddleware loads the mission `:id` into the context.
func missionMiddleware(svc mission.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			m, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == mission.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding mission by ID")
			}
			ctx.Set(contextMissionKey, m)
			return next(ctx)
		}
	}
}

func getContextMission(ctx echo.Context) (mission.Mission, error) {
	if m, ok := ctx.Get(contextMissionKey).(mission.Mission); ok {
		return m, nil
	}
	return mission.Mission{}, errors.Wrap(errNotInCtxObject, "retrieving mission from context")
}

// classMissionAccess checks that the profile may view (or manage) classID and that m is part of the class's catalog:
// global missions and the missions of the class's organization.
func classMissionAccess(ctx echo.Context, svc classroom.Service, m mission.Mission, classID string, manage bool) (classroom.Class, error) {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "getting context profile")
	}
	reqCtx := ctx.Request().Context()

	cls, err := svc.Get(reqCtx, classID)
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return classroom.Class{}, errHttpNotFound
		}
		return classroom.Class{}, errors.Wrap(err, "finding class")
	}

	check := svc.CanView
	if manage {
		check = svc.CanManage
	}
	allowed, err := check(reqCtx, prof, cls.ID)
	if err != nil {
		return classroom.Class{}, errors.Wrap(err, "checking class access")
	}
	if !allowed {
		return classroom.Class{}, errHttpForbidden
	}

	if !m.IsGlobal() && !(cls.OrgID.Valid && cls.OrgID.String == m.OrgID.String) {
		return classroom.Class{}, errHttpNotFound
	}
	return cls, nil
}
