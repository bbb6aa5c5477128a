package school

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// QueryDemo holds the results of the fixed query demonstration
type QueryDemo struct {
	FilterStudents      []Student // name contains "a"
	FilterExact         *Student  // id = 1, nil when absent
	FilterMultiple      []Student // name contains "a" and id > 0
	OrderedStudents     []Student // name A→Z
	OrderedDesc         []Student // name Z→A
	OrderedByID         []Student // newest first
	LimitedStudents     []Student // first 3
	LimitedOrdered      []Student // first 2 by name
	Totals              Counts
	FirstStudent        *Student
	FilterByCourse      []Student // course_id = 1
	StudentsWithCourses []StudentCourse
	TeachersWithCourses []Teacher
}

// RunQueryDemo executes the canned filter/order/limit/count/join queries
func (s *Store) RunQueryDemo() (*QueryDemo, error) {
	d := &QueryDemo{}

	steps := []struct {
		name string
		run  func() error
	}{
		{"filter", func() error {
			return s.db.Where("name LIKE ?", "%a%").Find(&d.FilterStudents).Error
		}},
		{"filter exact", func() error {
			var st Student
			err := s.db.Where("id = ?", 1).Take(&st).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err == nil {
				d.FilterExact = &st
			}
			return err
		}},
		{"filter multiple", func() error {
			return s.db.Where("name LIKE ?", "%a%").Where("id > ?", 0).Find(&d.FilterMultiple).Error
		}},
		{"order by name", func() error {
			return s.db.Order("name").Find(&d.OrderedStudents).Error
		}},
		{"order by name desc", func() error {
			return s.db.Order("name DESC").Find(&d.OrderedDesc).Error
		}},
		{"order by id desc", func() error {
			return s.db.Order("id DESC").Find(&d.OrderedByID).Error
		}},
		{"limit", func() error {
			return s.db.Limit(3).Find(&d.LimitedStudents).Error
		}},
		{"limit ordered", func() error {
			return s.db.Order("name").Limit(2).Find(&d.LimitedOrdered).Error
		}},
		{"count", func() error {
			var err error
			d.Totals, err = countAll(s.db)
			return err
		}},
		{"first", func() error {
			var st Student
			err := s.db.First(&st).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err == nil {
				d.FirstStudent = &st
			}
			return err
		}},
		{"filter by course", func() error {
			if d.Totals.Courses == 0 {
				return nil
			}
			return s.db.Where(&Student{CourseID: 1}).Find(&d.FilterByCourse).Error
		}},
		{"join", func() error {
			return s.db.Model(&Student{}).
				Select("students.id AS student_id, students.name AS student_name, students.email AS student_email, courses.id AS course_id, courses.name AS course_name").
				Joins("JOIN courses ON courses.id = students.course_id").
				Order("students.id").
				Scan(&d.StudentsWithCourses).Error
		}},
		{"teachers with courses", func() error {
			return s.db.Preload("Courses").Order("id").Find(&d.TeachersWithCourses).Error
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("query demo %s: %w", step.name, err)
		}
	}
	return d, nil
}
