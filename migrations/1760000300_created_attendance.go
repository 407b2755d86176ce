package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("attendance")

		collection.Fields.Add(
			&core.TextField{Name: "event_id", Required: true},
			&core.TextField{Name: "ticket_id", Required: true},
			&core.TextField{Name: "user_id", Required: true},
			&core.TextField{Name: "timestamp"},
			&core.TextField{Name: "marked_by"},
		)
		collection.AddIndex("idx_attendance_ticket", false, "ticket_id, event_id", "")
		collection.AddIndex("idx_attendance_key", true, "event_id, ticket_id, user_id", "")
		return app.Save(collection)
	}, func(app core.App) error {
		return dropCollection(app, "attendance")
	})
}
