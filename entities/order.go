package entities

import "time"

// Pharmacy is a partner pharmacy that accepts reservations.
type Pharmacy struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	GPSLat      float64 `json:"gps_lat"`
	GPSLng      float64 `json:"gps_lng"`
	PriceFactor float64 `json:"price_factor"`
}

// OrderStatusReserved is the only status an order takes in this service.
const OrderStatusReserved = "reserved"

// OrderItem is one line of a reservation.
// UnitPrice is nil when the catalog has no price for the product.
type OrderItem struct {
	TradeName        string `json:"trade_name"`
	ActiveIngredient string `json:"active_ingredient,omitempty"`
	Qty              int    `json:"qty"`
	UnitPrice        *int   `json:"unit_price"`
	Available        bool   `json:"available"`
}

// Order is a reservation record, written once and read back by its code.
type Order struct {
	ID         string          `json:"id"`
	OrderCode  string          `json:"order_code"`
	PharmacyID int             `json:"pharmacy_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Status     string          `json:"status"`
	Patient    *PatientContext `json:"patient_context,omitempty"`
	Items      []OrderItem     `json:"items"`
	Total      int             `json:"total"`
}
