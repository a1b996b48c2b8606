package models

// ModelsToAutoMigrate lists every model in migration order.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Pad{},
		&PadShare{},
	}
}
