package store

import (
	"testing"

	"estatepress/internal/models"
)

func TestLeadStoreCreateAndMarkNotified(t *testing.T) {
	db := testDB(t)
	s := NewLeadStore(db)

	email := "lead-test@store-test.local"
	t.Cleanup(func() { db.Exec("DELETE FROM leads WHERE email = $1", email) })

	phone := "+971500000000"
	created, err := s.Create(&models.Lead{
		Name:  "Test Lead",
		Email: email,
		Phone: &phone,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Notified() {
		t.Error("new lead must not be notified")
	}
	if created.Message != nil {
		t.Error("message should be NULL when not given")
	}

	if err := s.MarkNotified(created.ID); err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}

	leads, err := s.List(50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var found bool
	for _, l := range leads {
		if l.ID == created.ID {
			found = true
			if !l.Notified() {
				t.Error("lead not marked notified")
			}
		}
	}
	if !found {
		t.Error("created lead missing from List")
	}

	n, err := s.Count()
	if err != nil || n < 1 {
		t.Errorf("Count = %d, %v", n, err)
	}
}
