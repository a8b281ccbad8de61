package models

// DashboardStats is the aggregated snapshot shown on the landing dashboard.
type DashboardStats struct {
	TotalStudents   int              `json:"totalStudents"`
	TotalTeachers   int              `json:"totalTeachers"`
	StrandCounts    StrandCounts     `json:"strandCounts"`
	TodayAttendance AttendanceCounts `json:"todayAttendance"`
}
