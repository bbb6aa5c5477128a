package school

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/saltyorg/rollbook/internal/database"
)

var (
	// ErrNotFound is returned when an entity addressed by id does not exist
	ErrNotFound = errors.New("record not found")
	// ErrCourseNotFound is returned when a student references a missing course
	ErrCourseNotFound = errors.New("course does not exist")
)

// Store persists teachers, courses and students through gorm.
//
// Foreign keys are declared in the schema but SQLite does not enforce them
// (foreign_keys pragma is off), so deleting a teacher or course leaves the
// rows that referenced it in place.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
	path  string
}

// Open opens (and creates if absent) the school database at path
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", database.DSN(path)+"&_pragma=foreign_keys(0)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)

	gdb, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	log.Debug().Str("path", path).Msg("Database connection established")

	return &Store{db: gdb, sqlDB: sqlDB, path: path}, nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Migrate creates any missing tables, columns and indexes
func (s *Store) Migrate() error {
	log.Info().Msg("Running database migrations")
	if err := s.db.AutoMigrate(&Teacher{}, &Course{}, &Student{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Info().Msg("Database migrations complete")
	return nil
}

// Optimize runs SQLite's PRAGMA optimize to refresh planner stats.
func (s *Store) Optimize() error {
	if err := s.db.Exec("PRAGMA optimize").Error; err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim unused space.
func (s *Store) Vacuum() error {
	if err := s.db.Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Students

// ListStudents returns all students with their course, oldest first
func (s *Store) ListStudents() ([]Student, error) {
	var students []Student
	if err := s.db.Preload("Course").Order("id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// GetStudent retrieves a student by ID
func (s *Store) GetStudent(id uint) (*Student, error) {
	var student Student
	if err := s.db.Preload("Course").First(&student, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get student %d: %w", id, notFound(err))
	}
	return &student, nil
}

func (s *Store) courseExists(tx *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := tx.Model(&Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check course %d: %w", id, err)
	}
	return count > 0, nil
}

// CreateStudent inserts a student. An email collision is returned as the
// storage error unchanged.
func (s *Store) CreateStudent(student *Student) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.courseExists(tx, student.CourseID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCourseNotFound
		}
		if err := tx.Omit("Course").Create(student).Error; err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}
		return nil
	})
}

// UpdateStudent overwrites name, email and course of an existing student
func (s *Store) UpdateStudent(student *Student) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing Student
		if err := tx.First(&existing, student.ID).Error; err != nil {
			return fmt.Errorf("failed to get student %d: %w", student.ID, notFound(err))
		}
		ok, err := s.courseExists(tx, student.CourseID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCourseNotFound
		}
		err = tx.Model(&existing).Updates(map[string]any{
			"name":      student.Name,
			"email":     student.Email,
			"course_id": student.CourseID,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update student: %w", err)
		}
		return nil
	})
}

// DeleteStudent removes a student
func (s *Store) DeleteStudent(id uint) error {
	return s.deleteByID(&Student{}, id, "student")
}

// Courses

// ListCourses returns all courses with their teacher and students
func (s *Store) ListCourses() ([]Course, error) {
	var courses []Course
	if err := s.db.Preload("Teacher").Preload("Students").Order("id").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// GetCourse retrieves a course by ID
func (s *Store) GetCourse(id uint) (*Course, error) {
	var course Course
	if err := s.db.Preload("Teacher").First(&course, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", id, notFound(err))
	}
	return &course, nil
}

// CreateCourse inserts a course
func (s *Store) CreateCourse(course *Course) error {
	if err := s.db.Omit("Teacher", "Students").Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// UpdateCourse overwrites name, description and teacher of an existing course
func (s *Store) UpdateCourse(course *Course) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing Course
		if err := tx.First(&existing, course.ID).Error; err != nil {
			return fmt.Errorf("failed to get course %d: %w", course.ID, notFound(err))
		}
		err := tx.Model(&existing).Updates(map[string]any{
			"name":        course.Name,
			"description": course.Description,
			"teacher_id":  course.TeacherID,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update course: %w", err)
		}
		return nil
	})
}

// DeleteCourse removes a course; its students keep the stale course_id
func (s *Store) DeleteCourse(id uint) error {
	return s.deleteByID(&Course{}, id, "course")
}

// Teachers

// ListTeachers returns all teachers with their courses
func (s *Store) ListTeachers() ([]Teacher, error) {
	var teachers []Teacher
	if err := s.db.Preload("Courses").Order("id").Find(&teachers).Error; err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	return teachers, nil
}

// GetTeacher retrieves a teacher by ID
func (s *Store) GetTeacher(id uint) (*Teacher, error) {
	var teacher Teacher
	if err := s.db.Preload("Courses").First(&teacher, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get teacher %d: %w", id, notFound(err))
	}
	return &teacher, nil
}

// CreateTeacher inserts a teacher
func (s *Store) CreateTeacher(teacher *Teacher) error {
	if err := s.db.Omit("Courses").Create(teacher).Error; err != nil {
		return fmt.Errorf("failed to create teacher: %w", err)
	}
	return nil
}

// UpdateTeacher overwrites name, email and specialty of an existing teacher
func (s *Store) UpdateTeacher(teacher *Teacher) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing Teacher
		if err := tx.First(&existing, teacher.ID).Error; err != nil {
			return fmt.Errorf("failed to get teacher %d: %w", teacher.ID, notFound(err))
		}
		err := tx.Model(&existing).Updates(map[string]any{
			"name":              teacher.Name,
			"email":             teacher.Email,
			"subject_specialty": teacher.SubjectSpecialty,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update teacher: %w", err)
		}
		return nil
	})
}

// DeleteTeacher removes a teacher; its courses keep the stale teacher_id
func (s *Store) DeleteTeacher(id uint) error {
	return s.deleteByID(&Teacher{}, id, "teacher")
}

func (s *Store) deleteByID(model any, id uint, kind string) error {
	result := s.db.Delete(model, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s %d: %w", kind, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete %s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

// Counts holds the number of rows of each entity
type Counts struct {
	Students int64
	Courses  int64
	Teachers int64
}

// Count returns the number of rows of each entity
func (s *Store) Count() (Counts, error) {
	return countAll(s.db)
}

func countAll(tx *gorm.DB) (Counts, error) {
	var c Counts
	if err := tx.Model(&Student{}).Count(&c.Students).Error; err != nil {
		return c, fmt.Errorf("failed to count students: %w", err)
	}
	if err := tx.Model(&Course{}).Count(&c.Courses).Error; err != nil {
		return c, fmt.Errorf("failed to count courses: %w", err)
	}
	if err := tx.Model(&Teacher{}).Count(&c.Teachers).Error; err != nil {
		return c, fmt.Errorf("failed to count teachers: %w", err)
	}
	return c, nil
}
