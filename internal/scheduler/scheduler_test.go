package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasknest/reminderd/internal/reminder"
	"github.com/tasknest/reminderd/internal/summary"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// fakeScanner records the instants it was triggered at.
type fakeScanner struct {
	mutex    sync.Mutex
	instants []time.Time
	err      error
}

func (f *fakeScanner) TryRunCycle(ctx context.Context, now time.Time) (reminder.CycleReport, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.instants = append(f.instants, now)
	return reminder.CycleReport{}, true, f.err
}

func (f *fakeScanner) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.instants)
}

// fakeDigester records digest cycle invocations.
type fakeDigester struct {
	mutex sync.Mutex
	count int
}

func (f *fakeDigester) RunDigestCycle(ctx context.Context, now time.Time) (summary.DigestReport, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.count++
	return summary.DigestReport{}, nil
}

func testConfig() Config {
	return Config{
		ScanSpec:   "* * * * *",
		DigestSpec: "0 8 * * *",
		Location:   time.UTC,
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{}
	digester := &fakeDigester{}

	_, err := New(nil, digester, testConfig(), nil, testLogger())
	assert.ErrorIs(t, err, ErrNilScanner)

	_, err = New(scanner, nil, testConfig(), nil, testLogger())
	assert.ErrorIs(t, err, ErrNilAggregator)

	_, err = New(scanner, digester, testConfig(), nil, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestStartRegistersJobs(t *testing.T) {
	t.Parallel()

	s, err := New(&fakeScanner{}, &fakeDigester{}, testConfig(), nil, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 2, s.Jobs())
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ScanSpec = "not a cron spec"
	s, err := New(&fakeScanner{}, &fakeDigester{}, cfg, nil, testLogger())
	require.NoError(t, err)

	err = s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register reminder scan")
}

func TestRunScan_UsesInjectedClock(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	scanner := &fakeScanner{}
	s, err := New(scanner, &fakeDigester{}, testConfig(), func() time.Time { return fixed }, testLogger())
	require.NoError(t, err)

	s.runScan()

	require.Equal(t, 1, scanner.count())
	assert.Equal(t, fixed, scanner.instants[0],
		"the cycle instant comes from the injected clock, not the wall clock")
}

func TestRunScan_CycleErrorIsContained(t *testing.T) {
	t.Parallel()

	scanner := &fakeScanner{err: errors.New("store down")}
	s, err := New(scanner, &fakeDigester{}, testConfig(), nil, testLogger())
	require.NoError(t, err)

	// A failing cycle logs and returns; the next trigger tries again.
	s.runScan()
	s.runScan()

	assert.Equal(t, 2, scanner.count())
}

func TestRunDigest(t *testing.T) {
	t.Parallel()

	digester := &fakeDigester{}
	s, err := New(&fakeScanner{}, digester, testConfig(), nil, testLogger())
	require.NoError(t, err)

	s.runDigest()

	digester.mutex.Lock()
	defer digester.mutex.Unlock()
	assert.Equal(t, 1, digester.count)
}
