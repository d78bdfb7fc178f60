package profiler

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestProfiler(interval time.Duration) (*Profiler, *fakeClock, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	p := NewProfiler(WithInterval(interval), WithLogger(logger))
	p.now = clock.now
	p.lastTime = clock.t
	return p, clock, hook
}

func TestTickLogsOncePerInterval(t *testing.T) {
	c := qt.New(t)
	p, clock, hook := newTestProfiler(time.Second)

	for i := 0; i < 9; i++ {
		clock.advance(100 * time.Millisecond)
		c.Assert(p.Tick(), qt.IsFalse)
	}
	c.Assert(hook.AllEntries(), qt.HasLen, 0)

	clock.advance(100 * time.Millisecond)
	c.Assert(p.Tick(), qt.IsTrue)
	c.Assert(hook.AllEntries(), qt.HasLen, 1)

	entry := hook.LastEntry()
	c.Check(entry.Level, qt.Equals, logrus.InfoLevel)
	c.Check(entry.Message, qt.Equals, "profiler")
	c.Check(entry.Data["fps"], qt.Equals, 10.0)
	c.Check(p.Last().FPS, qt.Equals, 10.0)
}

func TestTickResetsCounters(t *testing.T) {
	c := qt.New(t)
	p, clock, hook := newTestProfiler(time.Second)

	clock.advance(time.Second)
	c.Assert(p.Tick(), qt.IsTrue)

	for i := 0; i < 4; i++ {
		clock.advance(500 * time.Millisecond)
		p.Tick()
	}
	c.Assert(hook.AllEntries(), qt.HasLen, 3)
	c.Check(p.Last().FPS, qt.Equals, 2.0)
}

func TestTickWithoutElapsedTime(t *testing.T) {
	c := qt.New(t)
	p, _, hook := newTestProfiler(0)

	c.Assert(p.Tick(), qt.IsFalse)
	c.Assert(hook.AllEntries(), qt.HasLen, 0)
}

func TestDefaults(t *testing.T) {
	c := qt.New(t)
	p := NewProfiler(WithLogger(nil))

	c.Assert(p.updateInterval, qt.Equals, time.Second)
	c.Assert(p.logger, qt.Equals, logrus.FieldLogger(logrus.StandardLogger()))
}
