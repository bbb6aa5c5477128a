package maintenance

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/saltyorg/rollbook/internal/database"
)

type countingTarget struct {
	optimized int
	vacuumed  int
	err       error
}

func (c *countingTarget) Optimize() error {
	c.optimized++
	return c.err
}

func (c *countingTarget) Vacuum() error {
	c.vacuumed++
	return c.err
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := New(&countingTarget{})

	if _, err := s.Start("every tuesday", ""); err == nil {
		t.Fatal("expected an error for an invalid optimize schedule")
	}
	if _, err := s.Start("", "61 * * * *"); err == nil {
		t.Fatal("expected an error for an invalid vacuum schedule")
	}
}

func TestStart_DisabledWhenNoSchedules(t *testing.T) {
	s := New(&countingTarget{})

	started, err := s.Start("", "")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if started {
		t.Fatal("expected scheduler not to start without jobs")
	}
	s.Stop()
}

func TestStartStop(t *testing.T) {
	s := New(&countingTarget{})

	started, err := s.Start("@daily", "@weekly")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if !started {
		t.Fatal("expected scheduler to start")
	}
	if len(s.cron.Entries()) != 2 {
		t.Fatalf("expected 2 cron entries, got %d", len(s.cron.Entries()))
	}
	s.Stop()
	s.Stop()
}

func TestRunJobs(t *testing.T) {
	target := &countingTarget{}
	s := New(target)

	s.RunOptimize()
	s.RunVacuum()
	target.err = errors.New("disk full")
	s.RunOptimize()

	if target.optimized != 2 || target.vacuumed != 1 {
		t.Fatalf("expected 2 optimizes and 1 vacuum, got %d and %d", target.optimized, target.vacuumed)
	}
}

func TestRunJobs_AgainstSQLite(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "students.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	if err := db.Optimize(); err != nil {
		t.Fatalf("Optimize returned error: %v", err)
	}
	if err := db.Vacuum(); err != nil {
		t.Fatalf("Vacuum returned error: %v", err)
	}
}
