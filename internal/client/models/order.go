package models

import "time"

type OrderCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Order is read-only for the console; orders are created elsewhere.
type Order struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	OrderDate time.Time      `json:"orderDate"`
	Customer  *OrderCustomer `json:"customer,omitempty"`
}

func (o Order) Key() string { return o.ID }

func (o Order) WithKey(id string) Order {
	o.ID = id
	return o
}

// CustomerName is "First Last", or "-" when the order has no customer.
func (o Order) CustomerName() string {
	if o.Customer == nil {
		return "-"
	}
	return o.Customer.FirstName + " " + o.Customer.LastName
}
