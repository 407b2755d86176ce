package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("events")
		relaxID(collection)

		collection.Fields.Add(
			&core.TextField{Name: "name", Required: true, Max: 200},
		)
		return app.Save(collection)
	}, func(app core.App) error {
		return dropCollection(app, "events")
	})
}
