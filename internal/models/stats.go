package models

type MonthlyRevenue struct {
	Year    int     `json:"year" bson:"year"`
	Month   int     `json:"month" bson:"month"`
	Revenue float64 `json:"revenue" bson:"revenue"`
	Orders  int64   `json:"orders" bson:"orders"`
}

type DashboardStats struct {
	TotalUsers    int64            `json:"total_users"`
	TotalProducts int64            `json:"total_products"`
	TotalOrders   int64            `json:"total_orders"`
	Revenue       float64          `json:"revenue"`
	Monthly       []MonthlyRevenue `json:"monthly"`
}
