package models

// Customer represents the authenticated loyalty-program customer
// @Description Customer profile and balance
type Customer struct {
	ID      int    `json:"id" example:"1"`                   // Customer ID
	Name    string `json:"name" example:"Maria Souza"`       // Customer display name
	Email   string `json:"email" example:"maria@example.com"` // Customer email
	Balance int64  `json:"balance" example:"1000"`           // Current point balance
}
