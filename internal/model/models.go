package model

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Brand{},
		&Product{},
		&ProductImage{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Wishlist{},
		&Notification{},
		&Review{},
	}
}
