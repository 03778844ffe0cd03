// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "gym-churn-workers/internal/common/errors"

	sq "github.com/Masterminds/squirrel"
)

// Store provides Postgres-backed access to plans, students and check-ins.
type Store struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ==========================
// Plans
// ==========================

// ListPlans returns all plans ordered by id.
func (s *Store) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.sb.
		Select("id", "name", "price", "description").
		From("plans").
		OrderBy("id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list plans", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan plan", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list plans", err)
	}
	return plans, nil
}

// GetPlan returns one plan by id.
func (s *Store) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	err := s.sb.
		Select("id", "name", "price", "description").
		From("plans").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&p.ID, &p.Name, &p.Price, &p.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewPlanNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get plan", err)
	}
	return &p, nil
}

// ==========================
// Students
// ==========================

const studentColumns = "s.id, s.name, s.email, s.birth_date, s.enrolled_at, s.plan_id, COALESCE(p.name, ''), s.status"

func scanStudent(row sq.RowScanner) (*Student, error) {
	var st Student
	var birthDate sql.NullTime
	err := row.Scan(&st.ID, &st.Name, &st.Email, &birthDate, &st.EnrolledAt, &st.PlanID, &st.PlanName, &st.Status)
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		st.BirthDate = &birthDate.Time
	}
	return &st, nil
}

// ListStudents returns all students with their plan names.
func (s *Store) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := s.sb.
		Select(studentColumns).
		From("students s").
		LeftJoin("plans p ON p.id = s.plan_id").
		OrderBy("s.id").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list students", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan student", err)
		}
		students = append(students, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list students", err)
	}
	return students, nil
}

// GetStudent returns one student by id with the plan name joined in.
func (s *Store) GetStudent(ctx context.Context, id int64) (*Student, error) {
	row := s.sb.
		Select(studentColumns).
		From("students s").
		LeftJoin("plans p ON p.id = s.plan_id").
		Where(sq.Eq{"s.id": id}).
		RunWith(s.db).
		QueryRowContext(ctx)

	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStudentNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get student", err)
	}
	return st, nil
}

// CreateStudent inserts a student and returns the assigned id.
func (s *Store) CreateStudent(ctx context.Context, st *Student) (int64, error) {
	var id int64
	err := s.sb.
		Insert("students").
		Columns("name", "email", "birth_date", "plan_id", "status").
		Values(st.Name, st.Email, st.BirthDate, st.PlanID, st.Status).
		Suffix("RETURNING id").
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("create student", err)
	}
	return id, nil
}

// UpdateStudent applies the non-nil fields of the update.
func (s *Store) UpdateStudent(ctx context.Context, id int64, update StudentUpdate) error {
	builder := s.sb.Update("students").Where(sq.Eq{"id": id})

	changed := false
	if update.Name != nil {
		builder = builder.Set("name", *update.Name)
		changed = true
	}
	if update.Email != nil {
		builder = builder.Set("email", *update.Email)
		changed = true
	}
	if update.BirthDate != nil {
		builder = builder.Set("birth_date", *update.BirthDate)
		changed = true
	}
	if update.PlanID != nil {
		builder = builder.Set("plan_id", *update.PlanID)
		changed = true
	}
	if update.Status != nil {
		builder = builder.Set("status", *update.Status)
		changed = true
	}
	if !changed {
		return nil
	}

	result, err := builder.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update student", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update student", err)
	}
	if affected == 0 {
		return apperrors.NewStudentNotFoundError(id)
	}
	return nil
}

// DeleteStudent removes a student by id.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	result, err := s.sb.
		Delete("students").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("delete student", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("delete student", err)
	}
	if affected == 0 {
		return apperrors.NewStudentNotFoundError(id)
	}
	return nil
}

// ==========================
// Check-ins
// ==========================

// ListCheckins returns all check-ins ordered by id.
func (s *Store) ListCheckins(ctx context.Context) ([]Checkin, error) {
	return s.queryCheckins(ctx, s.sb.
		Select("id", "student_id", "checkin_at", "duration_minutes").
		From("checkins").
		OrderBy("id"))
}

// ListCheckinsByStudent returns a student's full check-in history ordered by
// timestamp. This is the input to the churn metrics extractor.
func (s *Store) ListCheckinsByStudent(ctx context.Context, studentID int64) ([]Checkin, error) {
	return s.queryCheckins(ctx, s.sb.
		Select("id", "student_id", "checkin_at", "duration_minutes").
		From("checkins").
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("checkin_at"))
}

func (s *Store) queryCheckins(ctx context.Context, builder sq.SelectBuilder) ([]Checkin, error) {
	rows, err := builder.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list checkins", err)
	}
	defer rows.Close()

	var checkins []Checkin
	for rows.Next() {
		var c Checkin
		var duration sql.NullInt64
		if err := rows.Scan(&c.ID, &c.StudentID, &c.Timestamp, &duration); err != nil {
			return nil, apperrors.NewQueryExecutionFailedError("scan checkin", err)
		}
		if duration.Valid {
			d := int(duration.Int64)
			c.DurationMinutes = &d
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("list checkins", err)
	}
	return checkins, nil
}

// GetCheckin returns one check-in by id.
func (s *Store) GetCheckin(ctx context.Context, id int64) (*Checkin, error) {
	var c Checkin
	var duration sql.NullInt64
	err := s.sb.
		Select("id", "student_id", "checkin_at", "duration_minutes").
		From("checkins").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&c.ID, &c.StudentID, &c.Timestamp, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewCheckinNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("get checkin", err)
	}
	if duration.Valid {
		d := int(duration.Int64)
		c.DurationMinutes = &d
	}
	return &c, nil
}

// CreateCheckin inserts a check-in and returns the assigned id.
func (s *Store) CreateCheckin(ctx context.Context, c *Checkin) (int64, error) {
	var id int64
	err := s.sb.
		Insert("checkins").
		Columns("student_id", "checkin_at", "duration_minutes").
		Values(c.StudentID, c.Timestamp, c.DurationMinutes).
		Suffix("RETURNING id").
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, apperrors.NewQueryExecutionFailedError("create checkin", err)
	}
	return id, nil
}

// UpdateCheckin applies the non-nil fields of the update.
func (s *Store) UpdateCheckin(ctx context.Context, id int64, update CheckinUpdate) error {
	builder := s.sb.Update("checkins").Where(sq.Eq{"id": id})

	changed := false
	if update.StudentID != nil {
		builder = builder.Set("student_id", *update.StudentID)
		changed = true
	}
	if update.Timestamp != nil {
		builder = builder.Set("checkin_at", *update.Timestamp)
		changed = true
	}
	if update.DurationMinutes != nil {
		builder = builder.Set("duration_minutes", *update.DurationMinutes)
		changed = true
	}
	if !changed {
		return nil
	}

	result, err := builder.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update checkin", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("update checkin", err)
	}
	if affected == 0 {
		return apperrors.NewCheckinNotFoundError(id)
	}
	return nil
}

// DeleteCheckin removes a check-in by id.
func (s *Store) DeleteCheckin(ctx context.Context, id int64) error {
	result, err := s.sb.
		Delete("checkins").
		Where(sq.Eq{"id": id}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("delete checkin", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewQueryExecutionFailedError("delete checkin", err)
	}
	if affected == 0 {
		return apperrors.NewCheckinNotFoundError(id)
	}
	return nil
}

// ==========================
// Reports
// ==========================

// DailyCheckinCounts returns the total check-ins and distinct students within
// [dayStart, dayStart + 24h).
func (s *Store) DailyCheckinCounts(ctx context.Context, dayStart time.Time) (total int, uniqueStudents int, err error) {
	dayEnd := dayStart.Add(24 * time.Hour)
	err = s.sb.
		Select("COUNT(*)", "COUNT(DISTINCT student_id)").
		From("checkins").
		Where(sq.GtOrEq{"checkin_at": dayStart}).
		Where(sq.Lt{"checkin_at": dayEnd}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&total, &uniqueStudents)
	if err != nil {
		return 0, 0, apperrors.NewQueryExecutionFailedError("daily checkin counts", err)
	}
	return total, uniqueStudents, nil
}
