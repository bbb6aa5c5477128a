package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/rollbook/internal/school"
)

// School serves the relational teacher/course/student app backed by gorm
type School struct {
	Base
	store *school.Store
}

// NewSchool creates the school handlers
func NewSchool(base Base, store *school.Store) *School {
	return &School{Base: base, store: store}
}

// Routes registers the school routes
func (h *School) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/courses", h.Courses)
	r.Get("/teachers", h.Teachers)
	r.Get("/query-demo", h.QueryDemo)

	r.Get("/add", h.AddStudentForm)
	r.Post("/add", h.AddStudent)
	r.Get("/edit/{id}", h.EditStudentForm)
	r.Post("/edit/{id}", h.EditStudent)
	r.Get("/delete/{id}", h.DeleteStudent)
	r.Post("/delete/{id}", h.DeleteStudent)

	r.Get("/add-course", h.AddCourseForm)
	r.Post("/add-course", h.AddCourse)
	r.Get("/edit-course/{id}", h.EditCourseForm)
	r.Post("/edit-course/{id}", h.EditCourse)
	r.Get("/delete-course/{id}", h.DeleteCourse)
	r.Post("/delete-course/{id}", h.DeleteCourse)

	r.Get("/add-teacher", h.AddTeacherForm)
	r.Post("/add-teacher", h.AddTeacher)
	r.Get("/edit-teacher/{id}", h.EditTeacherForm)
	r.Post("/edit-teacher/{id}", h.EditTeacher)
	r.Get("/delete-teacher/{id}", h.DeleteTeacher)
	r.Post("/delete-teacher/{id}", h.DeleteTeacher)
}

// storeError maps store errors onto status codes
func (h *School) storeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, school.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, school.ErrCourseNotFound):
		http.Error(w, "Course does not exist", http.StatusBadRequest)
	default:
		h.serverError(w, r, err, msg)
	}
}

// schoolID parses the {id} route parameter
func schoolID(r *http.Request) (uint, bool) {
	id, err := pathID(r)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Students

type studentsPage struct {
	Students []school.Student
}

type studentPage struct {
	Student *school.Student
	Courses []school.Course
}

// Index lists every student with its course
func (h *School) Index(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.ListStudents()
	if err != nil {
		h.serverError(w, r, err, "Failed to list students")
		return
	}
	h.render(w, r, "school/index.html", "", studentsPage{Students: students})
}

// AddStudentForm shows the new student form with the course choices
func (h *School) AddStudentForm(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses()
	if err != nil {
		h.serverError(w, r, err, "Failed to list courses")
		return
	}
	h.render(w, r, "school/add.html", "Add Student", studentPage{Courses: courses})
}

// AddStudent enrolls a new student in an existing course
func (h *School) AddStudent(w http.ResponseWriter, r *http.Request) {
	form := parseSchoolStudent(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, "/add")
		return
	}

	courseID, err := parseRef(form.CourseID)
	if err != nil {
		http.Error(w, "Invalid course", http.StatusBadRequest)
		return
	}

	student := &school.Student{Name: form.Name, Email: form.Email, CourseID: courseID}
	if err := h.store.CreateStudent(student); err != nil {
		h.storeError(w, r, err, "Failed to create student")
		return
	}

	log.Info().Uint("id", student.ID).Str("email", student.Email).Msg("Student added")
	h.flashSuccess(w, r, "Student added successfully!")
	h.redirect(w, r, "/")
}

// EditStudentForm shows the edit form for an existing student
func (h *School) EditStudentForm(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	student, err := h.store.GetStudent(id)
	if err != nil {
		h.storeError(w, r, err, "Failed to get student")
		return
	}
	courses, err := h.store.ListCourses()
	if err != nil {
		h.serverError(w, r, err, "Failed to list courses")
		return
	}

	h.render(w, r, "school/edit.html", "Edit Student", studentPage{Student: student, Courses: courses})
}

// EditStudent overwrites name, email and course of a student
func (h *School) EditStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	form := parseSchoolStudent(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, fmt.Sprintf("/edit/%d", id))
		return
	}

	courseID, err := parseRef(form.CourseID)
	if err != nil {
		http.Error(w, "Invalid course", http.StatusBadRequest)
		return
	}

	student := &school.Student{ID: id, Name: form.Name, Email: form.Email, CourseID: courseID}
	if err := h.store.UpdateStudent(student); err != nil {
		h.storeError(w, r, err, "Failed to update student")
		return
	}

	h.flashSuccess(w, r, "Student updated!")
	h.redirect(w, r, "/")
}

// DeleteStudent removes a student
func (h *School) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.store.DeleteStudent(id); err != nil {
		h.storeError(w, r, err, "Failed to delete student")
		return
	}

	h.flashDanger(w, r, "Student deleted!")
	h.redirect(w, r, "/")
}

// Courses

type coursesPage struct {
	Courses []school.Course
}

type coursePage struct {
	Course    *school.Course
	TeacherID uint // selected teacher, 0 for none
	Teachers  []school.Teacher
}

// Courses lists every course with its teacher and enrollment
func (h *School) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses()
	if err != nil {
		h.serverError(w, r, err, "Failed to list courses")
		return
	}
	h.render(w, r, "school/courses.html", "Courses", coursesPage{Courses: courses})
}

// AddCourseForm shows the new course form with the teacher choices
func (h *School) AddCourseForm(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.store.ListTeachers()
	if err != nil {
		h.serverError(w, r, err, "Failed to list teachers")
		return
	}
	h.render(w, r, "school/add_course.html", "Add Course", coursePage{Teachers: teachers})
}

// AddCourse inserts a course. A blank teacher leaves the course unassigned.
func (h *School) AddCourse(w http.ResponseWriter, r *http.Request) {
	form := parseCourse(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, "/add-course")
		return
	}

	teacherID, err := parseOptionalRef(form.TeacherID)
	if err != nil {
		http.Error(w, "Invalid teacher", http.StatusBadRequest)
		return
	}

	course := &school.Course{Name: form.Name, Description: form.Description, TeacherID: teacherID}
	if err := h.store.CreateCourse(course); err != nil {
		h.storeError(w, r, err, "Failed to create course")
		return
	}

	h.flashSuccess(w, r, "Course added!")
	h.redirect(w, r, "/courses")
}

// EditCourseForm shows the edit form for an existing course
func (h *School) EditCourseForm(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	course, err := h.store.GetCourse(id)
	if err != nil {
		h.storeError(w, r, err, "Failed to get course")
		return
	}
	teachers, err := h.store.ListTeachers()
	if err != nil {
		h.serverError(w, r, err, "Failed to list teachers")
		return
	}

	page := coursePage{Course: course, Teachers: teachers}
	if course.TeacherID != nil {
		page.TeacherID = *course.TeacherID
	}
	h.render(w, r, "school/edit_course.html", "Edit Course", page)
}

// EditCourse overwrites name, description and teacher of a course
func (h *School) EditCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	form := parseCourse(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, fmt.Sprintf("/edit-course/%d", id))
		return
	}

	teacherID, err := parseOptionalRef(form.TeacherID)
	if err != nil {
		http.Error(w, "Invalid teacher", http.StatusBadRequest)
		return
	}

	course := &school.Course{ID: id, Name: form.Name, Description: form.Description, TeacherID: teacherID}
	if err := h.store.UpdateCourse(course); err != nil {
		h.storeError(w, r, err, "Failed to update course")
		return
	}

	h.flashSuccess(w, r, "Course updated!")
	h.redirect(w, r, "/courses")
}

// DeleteCourse removes a course; its students stay enrolled in the missing course
func (h *School) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.store.DeleteCourse(id); err != nil {
		h.storeError(w, r, err, "Failed to delete course")
		return
	}

	h.flashDanger(w, r, "Course deleted!")
	h.redirect(w, r, "/courses")
}

// Teachers

type teachersPage struct {
	Teachers []school.Teacher
}

// Teachers lists every teacher with the courses they teach
func (h *School) Teachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.store.ListTeachers()
	if err != nil {
		h.serverError(w, r, err, "Failed to list teachers")
		return
	}
	h.render(w, r, "school/teachers.html", "Teachers", teachersPage{Teachers: teachers})
}

// AddTeacherForm shows the new teacher form
func (h *School) AddTeacherForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "school/add_teacher.html", "Add Teacher", nil)
}

// AddTeacher inserts a teacher
func (h *School) AddTeacher(w http.ResponseWriter, r *http.Request) {
	form := parseTeacher(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, "/add-teacher")
		return
	}

	teacher := &school.Teacher{Name: form.Name, Email: form.Email, SubjectSpecialty: form.SubjectSpecialty}
	if err := h.store.CreateTeacher(teacher); err != nil {
		h.storeError(w, r, err, "Failed to create teacher")
		return
	}

	h.flashSuccess(w, r, "Teacher added successfully!")
	h.redirect(w, r, "/teachers")
}

// EditTeacherForm shows the edit form for an existing teacher
func (h *School) EditTeacherForm(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	teacher, err := h.store.GetTeacher(id)
	if err != nil {
		h.storeError(w, r, err, "Failed to get teacher")
		return
	}
	h.render(w, r, "school/edit_teacher.html", "Edit Teacher", teacher)
}

// EditTeacher overwrites name, email and specialty of a teacher
func (h *School) EditTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	form := parseTeacher(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, fmt.Sprintf("/edit-teacher/%d", id))
		return
	}

	teacher := &school.Teacher{ID: id, Name: form.Name, Email: form.Email, SubjectSpecialty: form.SubjectSpecialty}
	if err := h.store.UpdateTeacher(teacher); err != nil {
		h.storeError(w, r, err, "Failed to update teacher")
		return
	}

	h.flashSuccess(w, r, "Teacher updated!")
	h.redirect(w, r, "/teachers")
}

// DeleteTeacher removes a teacher; their courses keep the stale reference
func (h *School) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, ok := schoolID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := h.store.DeleteTeacher(id); err != nil {
		h.storeError(w, r, err, "Failed to delete teacher")
		return
	}

	h.flashDanger(w, r, "Teacher deleted!")
	h.redirect(w, r, "/teachers")
}

// QueryDemo runs the canned filter/order/limit/join queries and shows the results
func (h *School) QueryDemo(w http.ResponseWriter, r *http.Request) {
	demo, err := h.store.RunQueryDemo()
	if err != nil {
		h.serverError(w, r, err, "Failed to run query demo")
		return
	}
	h.render(w, r, "school/query_demo.html", "Query Demo", demo)
}
