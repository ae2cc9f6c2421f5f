package models

// All lists every persisted model. Used for sqlite auto-migration in dev and tests.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&OrderItem{},
		&Invoice{},
		&OutboxEvent{},
		&Notification{},
	}
}
