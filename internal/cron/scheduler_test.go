package cron

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeCron(t *testing.T) {
	cases := map[string]string{
		"0 3 * * *":    "0 0 3 * * *",
		"30 0 3 * * *": "30 0 3 * * *",
		"@daily":       "@daily",
		" @every 1h ":  "@every 1h",
	}
	for in, want := range cases {
		if got := normalizeCron(in); got != want {
			t.Fatalf("normalizeCron(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddRejectsBadScheduleAndDuplicates(t *testing.T) {
	s := NewScheduler(context.Background())
	noop := func(context.Context) error { return nil }

	if err := s.Add("bad", "not a schedule", noop); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
	if err := s.Add("cleanup", "@daily", noop); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("cleanup", "@hourly", noop); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 job, got %d", s.Len())
	}
}

func TestRunNowRecordsOutcome(t *testing.T) {
	s := NewScheduler(context.Background())
	fail := true
	calls := 0
	err := s.Add("prune", "@daily", func(context.Context) error {
		calls++
		if fail {
			return errors.New("disk full")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.RunNow("prune"); err == nil {
		t.Fatalf("expected job error")
	}
	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].LastError != "disk full" || jobs[0].LastRun == nil {
		t.Fatalf("unexpected job state: %+v", jobs[0])
	}

	fail = false
	if err := s.RunNow("prune"); err != nil {
		t.Fatalf("run: %v", err)
	}
	jobs = s.Jobs()
	if jobs[0].LastError != "" || jobs[0].Runs != 2 || calls != 2 {
		t.Fatalf("unexpected job state after success: %+v calls=%d", jobs[0], calls)
	}

	if err := s.RunNow("missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}
