package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/bullbear/internal/score"
)

func TestClientSubmitAndTop(t *testing.T) {
	var got score.Summary
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			assert.Equal(t, "hard", r.URL.Query().Get("difficulty"))
			json.NewEncoder(w).Encode([]Entry{
				{ID: "1", PlayerName: "a", Score: 900, Difficulty: "hard"},
				{ID: "2", PlayerName: "b", Score: 400, Difficulty: "hard"},
			})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Submit(ctx, score.Summary{PlayerName: "Tester", Score: 1160, Difficulty: "medium"}))
	assert.Equal(t, "Tester", got.PlayerName)
	assert.Equal(t, 1160.0, got.Score)

	entries, err := c.Top(ctx, "hard", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 900.0, entries[0].Score)
}

func TestClientSubmitNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.Submit(context.Background(), score.Summary{PlayerName: "x"})
	assert.Error(t, err)
}

func TestAsyncSubmitterRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultSubmitterConfig()
	cfg.BaseBackoff = 5 * time.Millisecond
	sub := NewAsyncSubmitter(NewClient(srv.URL, time.Second), cfg)
	defer sub.Close()

	sub.Enqueue(score.Summary{PlayerName: "Tester", Score: 100})

	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, time.Second, 5*time.Millisecond, "submitter gave up before succeeding")
	assert.Zero(t, sub.Dropped())
}

func TestAsyncSubmitterGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultSubmitterConfig()
	cfg.MaxRetries = 2
	cfg.BaseBackoff = 5 * time.Millisecond
	sub := NewAsyncSubmitter(NewClient(srv.URL, time.Second), cfg)
	defer sub.Close()

	sub.Enqueue(score.Summary{PlayerName: "Tester"})

	require.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 2, calls.Load(), "submitter kept retrying past the cap")
}

func TestEnqueueNeverBlocks(t *testing.T) {
	// no server: every delivery fails slowly, so the queue backs up
	cfg := DefaultSubmitterConfig()
	cfg.QueueSize = 1
	cfg.BaseBackoff = time.Hour
	sub := NewAsyncSubmitter(NewClient("http://127.0.0.1:0", 10*time.Millisecond), cfg)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			sub.Enqueue(score.Summary{PlayerName: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked")
	}
	assert.Positive(t, sub.Dropped())
}
