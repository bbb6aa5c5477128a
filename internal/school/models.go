package school

// Teacher teaches any number of courses
type Teacher struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:100;not null"`
	Email            string `gorm:"size:120;not null;uniqueIndex"`
	SubjectSpecialty string `gorm:"size:100"`
	Courses          []Course
}

// Course optionally belongs to a teacher and has any number of students
type Course struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"type:text"`
	TeacherID   *uint
	Teacher     *Teacher
	Students    []Student
}

// Student is enrolled in exactly one course
type Student struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:100;not null"`
	Email    string `gorm:"size:120;not null;uniqueIndex"`
	CourseID uint   `gorm:"not null"`
	Course   *Course
}

// StudentCourse is one row of the student/course inner join
type StudentCourse struct {
	StudentID    uint
	StudentName  string
	StudentEmail string
	CourseID     uint
	CourseName   string
}
