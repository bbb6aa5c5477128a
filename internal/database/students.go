package database

import (
	"database/sql"
	"fmt"
)

// Student is a row of the flat students table
type Student struct {
	ID     int64
	Name   string
	Email  string
	Course string
}

const studentColumns = "id, name, email, course"

func scanStudents(rows *sql.Rows) ([]*Student, error) {
	defer rows.Close()

	var students []*Student
	for rows.Next() {
		s := &Student{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Course); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// ListStudents returns students newest first. A non-empty search keeps only
// students whose name contains it.
func (db *DB) ListStudents(search string) ([]*Student, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if search != "" {
		rows, err = db.Query(
			"SELECT "+studentColumns+" FROM students WHERE name LIKE ? ORDER BY id DESC",
			"%"+search+"%",
		)
	} else {
		rows, err = db.Query("SELECT " + studentColumns + " FROM students ORDER BY id DESC")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return scanStudents(rows)
}

// ListStudentsByID returns every student in insertion order
func (db *DB) ListStudentsByID() ([]*Student, error) {
	rows, err := db.Query("SELECT " + studentColumns + " FROM students ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return scanStudents(rows)
}

// GetStudent retrieves a student by ID. Returns nil when no row matches.
func (db *DB) GetStudent(id int64) (*Student, error) {
	s := &Student{}
	err := db.QueryRow("SELECT "+studentColumns+" FROM students WHERE id = ?", id).
		Scan(&s.ID, &s.Name, &s.Email, &s.Course)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// StudentEmailExists reports whether any student already uses email
func (db *DB) StudentEmailExists(email string) (bool, error) {
	var id int64
	err := db.QueryRow("SELECT id FROM students WHERE email = ?", email).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return true, nil
}

// CreateStudent inserts a student and fills in its ID
func (db *DB) CreateStudent(s *Student) error {
	result, err := db.Exec(
		"INSERT INTO students (name, email, course) VALUES (?, ?, ?)",
		s.Name, s.Email, s.Course,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get student id: %w", err)
	}
	s.ID = id
	return nil
}

// UpdateStudent overwrites name, email and course. Updating an id that does
// not exist is not an error.
func (db *DB) UpdateStudent(s *Student) error {
	_, err := db.Exec(
		"UPDATE students SET name = ?, email = ?, course = ? WHERE id = ?",
		s.Name, s.Email, s.Course, s.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

// DeleteStudent removes a student if present
func (db *DB) DeleteStudent(id int64) error {
	if _, err := db.Exec("DELETE FROM students WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

// CountStudents returns the number of students
func (db *DB) CountStudents() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// ImportStudents inserts students in one transaction, skipping any whose
// email is already present (including earlier rows of the same batch).
func (db *DB) ImportStudents(students []*Student) (imported, skipped int, err error) {
	err = db.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare("INSERT INTO students (name, email, course) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare student insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range students {
			var id int64
			err := tx.QueryRow("SELECT id FROM students WHERE email = ?", s.Email).Scan(&id)
			if err == nil {
				skipped++
				continue
			}
			if err != sql.ErrNoRows {
				return fmt.Errorf("failed to check email: %w", err)
			}

			result, err := stmt.Exec(s.Name, s.Email, s.Course)
			if err != nil {
				return fmt.Errorf("failed to insert student %q: %w", s.Email, err)
			}
			if s.ID, err = result.LastInsertId(); err != nil {
				return fmt.Errorf("failed to get student id: %w", err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return imported, skipped, nil
}
