package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CourseDirectory answers course-ownership and enrollment questions from the
// registrar's tables. This service treats those tables as a read-only
// projection of an external system; it never writes them.
type CourseDirectory struct {
	pool *pgxpool.Pool
}

// NewCourseDirectory creates a new CourseDirectory.
func NewCourseDirectory(pool *pgxpool.Pool) *CourseDirectory {
	return &CourseDirectory{pool: pool}
}

// CourseOwner returns the faculty id that owns a course, or pgx.ErrNoRows if
// the course does not exist.
func (d *CourseDirectory) CourseOwner(ctx context.Context, courseID string) (string, error) {
	var facultyID string
	err := d.pool.QueryRow(ctx,
		`SELECT faculty_id FROM courses WHERE id = $1`, courseID,
	).Scan(&facultyID)
	return facultyID, err
}

// CoursesForStudent returns the course ids a student is enrolled in.
func (d *CourseDirectory) CoursesForStudent(ctx context.Context, studentID string) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT course_id FROM enrollments WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		courses = append(courses, id)
	}
	return courses, rows.Err()
}

// IsEnrolled reports whether a student is enrolled in a course.
func (d *CourseDirectory) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var enrolled bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2
		)`, courseID, studentID,
	).Scan(&enrolled)
	return enrolled, err
}
