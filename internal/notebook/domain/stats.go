package domain

type AdminStats struct {
	TotalUsers     int
	TotalNotes     int
	ActiveToday    int
	RecentActivity []ActivityWithUser
}
