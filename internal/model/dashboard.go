package model

type DashboardStats struct {
	OccupancyPct float64 `json:"occupancy_pct"`
	FreeBeds     int     `json:"free_beds"`
	Pending      int     `json:"pending"`
	Guests       int     `json:"guests"`
}

type DashboardSummary struct {
	Rooms            []*Room        `json:"rooms"`
	Stats            DashboardStats `json:"stats"`
	UpcomingArrivals []*Stay        `json:"upcoming_arrivals"`
}
