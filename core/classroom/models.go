package classroom

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Class is a `classes` row. Classes are managed elsewhere; missions only read them for access checks.
type Class struct {
	ID         string      `db:"id" json:"id"`
	OrgID      null.String `db:"org_id" json:"org_id"`
	Name       string      `db:"name" json:"name"`
	EducatorID null.String `db:"educator_id" json:"educator_id"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
