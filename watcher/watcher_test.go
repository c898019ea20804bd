package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airbnb-eda/utils"
)

func TestNewRequiresFiles(t *testing.T) {
	_, err := New(nil, time.Millisecond, utils.NewLoggerTo(io.Discard, utils.LevelError))
	require.Error(t, err)
}

func TestRunDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	listings := filepath.Join(dir, "listings.csv")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(listings, []byte("id,price\n"), 0o644))

	w, err := New([]string{listings}, 50*time.Millisecond, utils.NewLoggerTo(io.Discard, utils.LevelError))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) { runs <- changed })
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(listings, []byte("id,price\n1,$10\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))

	select {
	case changed := <-runs:
		abs, _ := filepath.Abs(listings)
		assert.Equal(t, []string{abs}, changed)
	case <-time.After(3 * time.Second):
		t.Fatal("handler was not called")
	}

	select {
	case changed := <-runs:
		t.Fatalf("unexpected second run: %v", changed)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
