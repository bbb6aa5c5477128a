package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/saltyorg/rollbook/internal/database"
	"github.com/saltyorg/rollbook/internal/spreadsheet"
)

const msgEmailExists = "Email already exists!"

// Roster serves the flat student roster backed by raw SQL
type Roster struct {
	Base
	db *database.DB
}

// NewRoster creates the roster handlers
func NewRoster(base Base, db *database.DB) *Roster {
	return &Roster{Base: base, db: db}
}

// Routes registers the roster routes
func (h *Roster) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/add", h.AddForm)
	r.Post("/add", h.Add)
	r.Get("/edit/{id}", h.EditForm)
	r.Post("/edit/{id}", h.Edit)
	r.Get("/delete/{id}", h.Delete)
	r.Post("/delete/{id}", h.Delete)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
}

type rosterIndex struct {
	Students []*database.Student
	Search   string
}

// Index lists students newest first, optionally filtered by name
func (h *Roster) Index(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	students, err := h.db.ListStudents(search)
	if err != nil {
		h.serverError(w, r, err, "Failed to list students")
		return
	}

	h.render(w, r, "roster/index.html", "", rosterIndex{Students: students, Search: search})
}

// AddForm shows the new student form
func (h *Roster) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "roster/add.html", "Add Student", nil)
}

// Add inserts a student unless the email is already taken
func (h *Roster) Add(w http.ResponseWriter, r *http.Request) {
	form := parseRosterStudent(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, "/add")
		return
	}

	exists, err := h.db.StudentEmailExists(form.Email)
	if err != nil {
		h.serverError(w, r, err, "Failed to check email")
		return
	}
	if exists {
		h.flashDanger(w, r, msgEmailExists)
		h.redirect(w, r, "/add")
		return
	}

	student := &database.Student{Name: form.Name, Email: form.Email, Course: form.Course}
	if err := h.db.CreateStudent(student); err != nil {
		// Another request inserted the same email after the lookup
		if errors.Is(err, database.ErrDuplicateEmail) {
			h.flashDanger(w, r, msgEmailExists)
			h.redirect(w, r, "/add")
			return
		}
		h.serverError(w, r, err, "Failed to create student")
		return
	}

	log.Info().Int64("id", student.ID).Str("email", student.Email).Msg("Student added")
	h.flashSuccess(w, r, "Student added successfully!")
	h.redirect(w, r, "/")
}

// EditForm shows the edit form for an existing student
func (h *Roster) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	student, err := h.db.GetStudent(id)
	if err != nil {
		h.serverError(w, r, err, "Failed to get student")
		return
	}
	if student == nil {
		http.NotFound(w, r)
		return
	}

	h.render(w, r, "roster/edit.html", "Edit Student", student)
}

// Edit overwrites a student. An id that no longer exists updates nothing.
func (h *Roster) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	editURL := fmt.Sprintf("/edit/%d", id)

	form := parseRosterStudent(r)
	if err := validate.Struct(form); err != nil {
		h.flashDanger(w, r, validationMessage(err))
		h.redirect(w, r, editURL)
		return
	}

	student := &database.Student{ID: id, Name: form.Name, Email: form.Email, Course: form.Course}
	if err := h.db.UpdateStudent(student); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			h.flashDanger(w, r, msgEmailExists)
			h.redirect(w, r, editURL)
			return
		}
		h.serverError(w, r, err, "Failed to update student")
		return
	}

	h.flashSuccess(w, r, "Student updated successfully!")
	h.redirect(w, r, "/")
}

// Delete removes a student if present
func (h *Roster) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.db.DeleteStudent(id); err != nil {
		h.serverError(w, r, err, "Failed to delete student")
		return
	}

	h.flashDanger(w, r, "Student deleted successfully!")
	h.redirect(w, r, "/")
}

// Export downloads every student as an xlsx workbook
func (h *Roster) Export(w http.ResponseWriter, r *http.Request) {
	students, err := h.db.ListStudentsByID()
	if err != nil {
		h.serverError(w, r, err, "Failed to list students")
		return
	}

	rows := make([]spreadsheet.Row, 0, len(students))
	for _, s := range students {
		rows = append(rows, spreadsheet.Row{Name: s.Name, Email: s.Email, Course: s.Course})
	}

	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, rows); err != nil {
		h.serverError(w, r, err, "Failed to build spreadsheet")
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="students.xlsx"`)
	_, _ = buf.WriteTo(w)
}

// Import adds students from an uploaded xlsx workbook
func (h *Roster) Import(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		h.flashDanger(w, r, "Choose a spreadsheet to import.")
		h.redirect(w, r, "/")
		return
	}
	defer file.Close()

	result, err := spreadsheet.Read(file)
	if err != nil {
		log.Warn().Err(err).Msg("Rejected spreadsheet import")
		h.flashDanger(w, r, "Could not read the spreadsheet.")
		h.redirect(w, r, "/")
		return
	}

	students := make([]*database.Student, 0, len(result.Rows))
	for _, row := range result.Rows {
		students = append(students, &database.Student{Name: row.Name, Email: row.Email, Course: row.Course})
	}

	imported, skipped, err := h.db.ImportStudents(students)
	if err != nil {
		h.serverError(w, r, err, "Failed to import students")
		return
	}
	skipped += result.Incomplete

	log.Info().Int("imported", imported).Int("skipped", skipped).Msg("Spreadsheet imported")
	h.flashSuccess(w, r, fmt.Sprintf("Imported %d students (%d skipped)", imported, skipped))
	h.redirect(w, r, "/")
}
