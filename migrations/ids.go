package migrations

import "github.com/pocketbase/pocketbase/core"

// relaxID lets a collection keep ids minted outside PocketBase, such as
// printed ticket codes and registration user ids.
func relaxID(collection *core.Collection) {
	if idField, ok := collection.Fields.GetByName("id").(*core.TextField); ok {
		idField.Min = 1
		idField.Max = 64
		idField.Pattern = `^[a-zA-Z0-9_-]+$`
	}
}

func dropCollection(app core.App, name string) error {
	collection, err := app.FindCollectionByNameOrId(name)
	if err != nil {
		return nil
	}
	return app.Delete(collection)
}
