package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core"
)

var orderingParam = "ordering"

// Ordering binds `?ordering=order_no,-created_at`. Repositories ignore fields they cannot order by.
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
