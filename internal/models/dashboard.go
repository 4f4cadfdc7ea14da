package models

// DashboardStats is the admin overview
type DashboardStats struct {
	UsersByRole         map[string]int `json:"usersByRole"`
	CoursesByStatus     map[string]int `json:"coursesByStatus"`
	TotalEnrollments    int            `json:"totalEnrollments"`
	RecentEnrollments   int            `json:"recentEnrollments"` // last 30 days
	PendingReviews      int            `json:"pendingReviews"`
	ReportedReviews     int            `json:"reportedReviews"`
	UngradedSubmissions int            `json:"ungradedSubmissions"`
}
