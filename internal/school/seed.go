package school

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Seed fills an empty database with sample teachers, courses and students.
// Nothing is inserted if any of the three tables already has rows.
// Returns true when sample data was written.
func (s *Store) Seed() (bool, error) {
	seeded := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		counts, err := countAll(tx)
		if err != nil {
			return err
		}
		if counts.Teachers > 0 || counts.Courses > 0 || counts.Students > 0 {
			log.Debug().
				Int64("teachers", counts.Teachers).
				Int64("courses", counts.Courses).
				Int64("students", counts.Students).
				Msg("Database not empty, skipping sample data")
			return nil
		}

		teachers := []Teacher{
			{Name: "Dr. Duryodhan Jathar", Email: "jathar@school.com", SubjectSpecialty: "Computer Science"},
			{Name: "Prof. Prachi Patekar", Email: "prachi@school.com", SubjectSpecialty: "Data Science"},
			{Name: "Ms. Shruti Bhate", Email: "shruti@school.com", SubjectSpecialty: "Web Development"},
		}
		if err := tx.Create(&teachers).Error; err != nil {
			return fmt.Errorf("failed to seed teachers: %w", err)
		}

		courses := []Course{
			{Name: "Python Basics", Description: "Learn Python programming fundamentals", TeacherID: &teachers[0].ID},
			{Name: "Web Development", Description: "HTML, CSS, JavaScript and Flask", TeacherID: &teachers[2].ID},
			{Name: "Data Science", Description: "Data analysis with Python", TeacherID: &teachers[1].ID},
			{Name: "Machine Learning", Description: "ML algorithms and applications", TeacherID: &teachers[1].ID},
		}
		if err := tx.Create(&courses).Error; err != nil {
			return fmt.Errorf("failed to seed courses: %w", err)
		}

		students := []Student{
			{Name: "Alice Johnson", Email: "alice@student.com", CourseID: courses[0].ID},
			{Name: "Bob Smith", Email: "bob@student.com", CourseID: courses[1].ID},
			{Name: "Charlie Brown", Email: "charlie@student.com", CourseID: courses[0].ID},
			{Name: "Diana Prince", Email: "diana@student.com", CourseID: courses[2].ID},
			{Name: "Ethan Hunt", Email: "ethan@student.com", CourseID: courses[1].ID},
		}
		if err := tx.Create(&students).Error; err != nil {
			return fmt.Errorf("failed to seed students: %w", err)
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if seeded {
		log.Info().Int("teachers", 3).Int("courses", 4).Int("students", 5).Msg("Sample data added")
	}
	return seeded, nil
}
