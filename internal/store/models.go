// internal/store/models.go
package store

import "time"

// Plan is a gym membership plan.
type Plan struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// Student is a gym member. PlanName is denormalized from the joined plan row
// and empty when the student has no plan.
type Student struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	EnrolledAt time.Time  `json:"enrolled_at"`
	PlanID     int64      `json:"plan_id"`
	PlanName   string     `json:"plan_name,omitempty"`
	Status     string     `json:"status"`
}

// Checkin is one timestamped gym visit. DurationMinutes is nil when the visit
// duration was not recorded.
type Checkin struct {
	ID              int64     `json:"id"`
	StudentID       int64     `json:"student_id"`
	Timestamp       time.Time `json:"timestamp"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
}

// StudentUpdate carries partial updates; nil fields are left untouched.
type StudentUpdate struct {
	Name      *string
	Email     *string
	BirthDate *time.Time
	PlanID    *int64
	Status    *string
}

// CheckinUpdate carries partial updates; nil fields are left untouched.
type CheckinUpdate struct {
	StudentID       *int64
	Timestamp       *time.Time
	DurationMinutes *int
}

// DailyReport summarizes one day of visit activity.
type DailyReport struct {
	ReportDate     string `json:"report_date"`
	TotalCheckins  int    `json:"total_checkins"`
	UniqueStudents int    `json:"unique_students"`
}
