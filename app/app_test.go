package app

import (
	"context"
	"testing"
	"time"

	"eventboard-api/config"
	"eventboard-api/models"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewMemoryApp(t *testing.T) {
	cfg := config.Default()
	cfg.SeedData = true

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	waitFor(t, func() bool { return !a.Discovery.Loading() && !a.Moderation.Loading() })
	if n := len(a.Discovery.Events()); n != 3 {
		t.Errorf("seeded approved events = %d", n)
	}
	if a.Moderation.Count() != 1 {
		t.Errorf("seeded pending events = %d", a.Moderation.Count())
	}
}

func TestNewSQLiteAppSeesSubmissions(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseDriver = "sqlite"
	cfg.DatabaseURL = ":memory:"
	cfg.WatchInterval = 10 * time.Millisecond

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	draft := models.Draft{
		Title:          "Pride Picnic",
		Description:    "Potluck",
		Date:           time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Location:       "Discovery Green",
		CommunityFocus: models.FocusSet{models.FocusTrans},
	}
	res, err := a.Submission.Submit(context.Background(), draft, "u1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, func() bool { return a.Moderation.Count() == 1 })

	if err := a.Moderation.Approve(context.Background(), res.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	waitFor(t, func() bool { return len(a.Discovery.Events()) == 1 })
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseDriver = "cassandra"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected an error")
	}
}
