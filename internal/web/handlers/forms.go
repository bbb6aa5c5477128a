package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form label
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// formValue returns the trimmed value of a posted form field
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// validationMessage turns the first failed rule into a message for the user
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required.", fe.Field())
		default:
			return fmt.Sprintf("%s is invalid.", fe.Field())
		}
	}
	return "Please check the form and try again."
}

type rosterStudentForm struct {
	Name   string `label:"Name" validate:"required"`
	Email  string `label:"Email" validate:"required"`
	Course string `label:"Course" validate:"required"`
}

func parseRosterStudent(r *http.Request) rosterStudentForm {
	return rosterStudentForm{
		Name:   formValue(r, "name"),
		Email:  formValue(r, "email"),
		Course: formValue(r, "course"),
	}
}

type schoolStudentForm struct {
	Name     string `label:"Name" validate:"required"`
	Email    string `label:"Email" validate:"required"`
	CourseID string `label:"Course" validate:"required"`
}

func parseSchoolStudent(r *http.Request) schoolStudentForm {
	return schoolStudentForm{
		Name:     formValue(r, "name"),
		Email:    formValue(r, "email"),
		CourseID: formValue(r, "course_id"),
	}
}

type courseForm struct {
	Name        string `label:"Name" validate:"required"`
	Description string
	TeacherID   string `label:"Teacher" validate:"omitempty,number"`
}

func parseCourse(r *http.Request) courseForm {
	return courseForm{
		Name:        formValue(r, "name"),
		Description: formValue(r, "description"),
		TeacherID:   formValue(r, "teacher_id"),
	}
}

type teacherForm struct {
	Name             string `label:"Name" validate:"required"`
	Email            string `label:"Email" validate:"required"`
	SubjectSpecialty string
}

func parseTeacher(r *http.Request) teacherForm {
	return teacherForm{
		Name:             formValue(r, "name"),
		Email:            formValue(r, "email"),
		SubjectSpecialty: formValue(r, "subject_specialty"),
	}
}

var errBadReference = errors.New("invalid reference")

// parseRef parses a posted id referencing another entity
func parseRef(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errBadReference
	}
	return uint(id), nil
}

// parseOptionalRef parses an id that may be left blank
func parseOptionalRef(s string) (*uint, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseRef(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
