package models

import "time"

type OrderCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Order is read-only through the data service. Customer is nil when the
// order has no customer or the customer row is gone.
type Order struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	OrderDate time.Time      `json:"orderDate"`
	Customer  *OrderCustomer `json:"customer,omitempty"`
}
