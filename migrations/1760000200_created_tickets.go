package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")
		relaxID(collection)

		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "event_name"},
			&core.TextField{Name: "team_name"},
			&core.BoolField{Name: "active"},
			// members, kept under the field name existing ticket documents use
			&core.JSONField{Name: "stud_id"},
			&core.JSONField{Name: "member_history"},
			&core.JSONField{Name: "swap_history"},
			&core.JSONField{Name: "attendance"},
			&core.TextField{Name: "last_modified"},
		)
		collection.AddIndex("idx_tickets_event_id", false, "event_id", "")
		return app.Save(collection)
	}, func(app core.App) error {
		return dropCollection(app, "tickets")
	})
}
