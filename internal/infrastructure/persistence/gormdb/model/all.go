package model

// All lists every table in migration order.
func All() []any {
	return []any{
		&Machine{},
		&Technician{},
		&Part{},
		&Intervention{},
		&CacheEntry{},
	}
}
