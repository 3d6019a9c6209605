package taskfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(path, []byte("tasks:\n  - id: a\n"), 0644); err != nil {
		t.Fatalf("failed to write task file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs := make(chan *Document, 4)
	errs := make(chan error, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond,
			func(d *Document) { docs <- d },
			func(err error) { errs <- err })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// Changes to other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write unrelated file: %v", err)
	}
	if err := os.WriteFile(path, []byte("tasks:\n  - id: a\n  - id: b\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite task file: %v", err)
	}

	select {
	case doc := <-docs:
		if len(doc.Tasks) != 2 {
			t.Errorf("expected reloaded document with 2 tasks, got %d", len(doc.Tasks))
		}
	case err := <-errs:
		t.Fatalf("unexpected reload error: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}

	if err := os.WriteFile(path, []byte("tasks: [not: valid"), 0644); err != nil {
		t.Fatalf("failed to write broken file: %v", err)
	}
	select {
	case <-errs:
	case doc := <-docs:
		t.Fatalf("expected a parse error, got document with %d tasks", len(doc.Tasks))
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload error")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "gone", "tasks.yaml"), 0, func(*Document) {}, func(error) {})
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWatch_BurstReloadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yaml")
	if err := os.WriteFile(path, []byte("tasks:\n  - id: a\n"), 0644); err != nil {
		t.Fatalf("failed to write task file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs := make(chan *Document, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 200*time.Millisecond,
			func(d *Document) { docs <- d },
			func(err error) { t.Errorf("unexpected reload error: %v", err) })
	}()
	time.Sleep(100 * time.Millisecond)

	for _, content := range []string{
		"tasks:\n  - id: a\n  - id: b\n",
		"tasks:\n  - id: a\n  - id: b\n  - id: c\n",
	} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to rewrite task file: %v", err)
		}
	}

	select {
	case doc := <-docs:
		if len(doc.Tasks) != 3 {
			t.Errorf("expected the last write with 3 tasks, got %d", len(doc.Tasks))
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}

	select {
	case doc := <-docs:
		t.Errorf("expected one reload for the burst, got another with %d tasks", len(doc.Tasks))
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatch_CancelBeforeAnyChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 0, func(*Document) {}, func(error) {})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
