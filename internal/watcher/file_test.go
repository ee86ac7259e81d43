package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectEvents(t *testing.T, s *FileSource, want int) []Event {
	t.Helper()
	var got []Event
	deadline := time.After(3 * time.Second)
	for len(got) < want {
		select {
		case e := <-s.Events():
			got = append(got, e)
		case <-deadline:
			t.Fatalf("timed out with %d/%d events", len(got), want)
		}
	}
	return got
}

func TestFileSource_FollowsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knock.log")
	if err := os.WriteFile(path, []byte("old line before start\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileSource(path, "opensesame", nil, nil)
	s.poll = 10 * time.Millisecond
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("2026-08-25T10:00:00Z 192.0.2.1 7000 opensesame\n")
	f.WriteString("garbage line\n")
	f.WriteString("2026-08-25T10:00:01Z 192.0.2.1 8000 wrongtoken\n")
	f.WriteString("2026-08-25T10:00:02Z 192.0.2.1 8000 opensesame\n")
	f.Close()

	got := collectEvents(t, s, 2)
	if got[0].Addr != "192.0.2.1" || got[0].Port != 7000 {
		t.Errorf("event[0] = %+v", got[0])
	}
	if got[1].Port != 8000 {
		t.Errorf("event[1] = %+v", got[1])
	}
	if got[0].At.IsZero() {
		t.Error("timestamp not parsed")
	}
}

func TestFileSource_MissingFile(t *testing.T) {
	s := NewFileSource("/nonexistent/knock.log", "x", nil, nil)
	if err := s.Start(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSource_MalformedLinesDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knock.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileSource(path, "tok", nil, nil)
	s.poll = 10 * time.Millisecond
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	f.WriteString("not-a-time 192.0.2.1 7000 tok\n")
	f.WriteString("2026-08-25T10:00:00Z 192.0.2.1 notaport tok\n")
	f.WriteString("2026-08-25T10:00:00Z 192.0.2.1 0 tok\n")
	f.WriteString("2026-08-25T10:00:00Z 192.0.2.1 7000 tok\n")
	f.Close()

	got := collectEvents(t, s, 1)
	if got[0].Port != 7000 {
		t.Errorf("event = %+v", got[0])
	}

	// No further events should arrive.
	select {
	case e := <-s.Events():
		t.Errorf("unexpected event from malformed line: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}
