package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/mission"
	"github.com/trezcool/darasa/core/user"
)

type adminApi struct {
	svc    mission.Service
	logger core.Logger
}

func registerAdminAPI(g *echo.Group, deps ServerDeps) {
	api := adminApi{svc: deps.MissionSvc, logger: deps.Logger}

	ag := g.Group("/admin", roleMiddleware(user.RoleAdmin))
	ag.POST("/missions/normalize-json", api.normalizeJSON)
}

// normalizeJSON moves the mission JSON blobs to their canonical paths. Missions that could not be moved are
// reported in the response's warnings.
func (api *adminApi) normalizeJSON(ctx echo.Context) error {
	report, err := api.svc.NormalizeJSONPaths(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "normalizing mission json paths")
	}
	if len(report.Warnings) > 0 {
		args := []interface{}{map[string]interface{}{"warnings": report.Warnings}}
		if prof, pErr := getContextProfile(ctx); pErr == nil {
			args = append(args, prof)
		}
		api.logger.Warn(fmt.Sprintf("normalize-json: %d mission(s) not normalized", len(report.Warnings)), args...)
	}
	return ctx.JSON(http.StatusOK, report)
}
