package models

import "time"

// Customer holds the checkout form fields. Only presence is validated.
type Customer struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// Order is one completed checkout in the append-only order log.
type Order struct {
	ID       string     `json:"id"`
	Date     time.Time  `json:"date"`
	Method   string     `json:"method"`
	Amount   float64    `json:"amount"`
	Customer Customer   `json:"customer"`
	Items    []LineItem `json:"items"`
}
