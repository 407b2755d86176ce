package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		// attendees are registered elsewhere and never log in here, so the
		// default auth collection gives way to a base one
		if existing, err := app.FindCollectionByNameOrId("users"); err == nil {
			if existing.IsAuth() {
				if err := app.Delete(existing); err != nil {
					return err
				}
			} else {
				return nil
			}
		}

		collection := core.NewBaseCollection("users")
		relaxID(collection)

		collection.Fields.Add(
			&core.TextField{Name: "name"},
			&core.TextField{Name: "email"},
			&core.TextField{Name: "phone"},
			&core.JSONField{Name: "tickets"},
		)
		collection.AddIndex("idx_users_email", false, "email", "")
		collection.AddIndex("idx_users_phone", false, "phone", "")
		return app.Save(collection)
	}, func(app core.App) error {
		return dropCollection(app, "users")
	})
}
