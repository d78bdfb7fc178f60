package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// texture is a fake GPU resource that records its release into a shared log.
type texture struct {
	name     string
	version  int
	released *[]string
}

func (t *texture) Release() {
	*t.released = append(*t.released, fmt.Sprintf("%s@%d", t.name, t.version))
}

type fixture struct {
	mu       sync.Mutex
	released []string
	reads    map[string]int
	builds   map[string]int
	readErr  map[string]error
	buildErr map[string]error
}

func newFixture() *fixture {
	return &fixture{
		reads:    make(map[string]int),
		builds:   make(map[string]int),
		readErr:  make(map[string]error),
		buildErr: make(map[string]error),
	}
}

func (f *fixture) source(key string) Source[*texture] {
	return Source[*texture]{
		Key: key,
		Read: func() ([]byte, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.reads[key]++
			if err := f.readErr[key]; err != nil {
				return nil, err
			}
			return []byte(key), nil
		},
		Build: func(data []byte) (*texture, error) {
			if err := f.buildErr[key]; err != nil {
				return nil, err
			}
			f.builds[key]++
			return &texture{name: string(data), version: f.builds[key], released: &f.released}, nil
		},
	}
}

func newTestCache(c *qt.C) Cache[*texture] {
	logger, _ := logtest.NewNullLogger()
	return NewCache[*texture](WithLogger(logger), WithWorkers(2))
}

func TestLoadCachesByKey(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)

	first, err := tc.Load(f.source("brick"))
	c.Assert(err, qt.IsNil)
	second, err := tc.Load(f.source("brick"))
	c.Assert(err, qt.IsNil)

	c.Assert(second, qt.Equals, first)
	c.Assert(f.reads["brick"], qt.Equals, 1)

	got, err := tc.Get("brick")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, first)
	c.Assert(tc.Len(), qt.Equals, 1)
}

func TestLoadErrors(t *testing.T) {
	c := qt.New(t)
	errBoom := errors.New("boom")

	tests := []struct {
		name   string
		source func(f *fixture) Source[*texture]
		want   string
	}{
		{
			name: "read",
			source: func(f *fixture) Source[*texture] {
				f.readErr["a"] = errBoom
				return f.source("a")
			},
			want: `cache: read "a": boom`,
		},
		{
			name: "build",
			source: func(f *fixture) Source[*texture] {
				f.buildErr["a"] = errBoom
				return f.source("a")
			},
			want: `cache: build "a": boom`,
		},
		{
			name: "no build step",
			source: func(f *fixture) Source[*texture] {
				return Source[*texture]{Key: "a"}
			},
			want: `cache: source "a" has no build step`,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			tc := newTestCache(c)
			_, err := tc.Load(tt.source(newFixture()))
			c.Assert(err, qt.ErrorMatches, tt.want)
			c.Assert(tc.Len(), qt.Equals, 0)
		})
	}
}

func TestGetAndReleaseMissing(t *testing.T) {
	c := qt.New(t)
	tc := newTestCache(c)

	_, err := tc.Get("missing")
	c.Assert(err, qt.ErrorIs, ErrNotFound)
	c.Assert(tc.Release("missing"), qt.ErrorIs, ErrNotFound)
	_, err = tc.Reload("missing")
	c.Assert(err, qt.ErrorIs, ErrNotFound)
}

func TestReloadReplacesAfterBuild(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)

	_, err := tc.Load(f.source("brick"))
	c.Assert(err, qt.IsNil)

	reloaded, err := tc.Reload("brick")
	c.Assert(err, qt.IsNil)
	c.Assert(reloaded.version, qt.Equals, 2)
	c.Assert(f.released, qt.DeepEquals, []string{"brick@1"})

	got, err := tc.Get("brick")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, reloaded)
}

func TestReloadFailureKeepsOld(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)

	old, err := tc.Load(f.source("brick"))
	c.Assert(err, qt.IsNil)

	f.buildErr["brick"] = errors.New("device lost")
	_, err = tc.Reload("brick")
	c.Assert(err, qt.ErrorMatches, `cache: build "brick": device lost`)
	c.Assert(f.released, qt.HasLen, 0)

	got, err := tc.Get("brick")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, old)
}

func TestRelease(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)

	for _, key := range []string{"a", "b", "c"} {
		_, err := tc.Load(f.source(key))
		c.Assert(err, qt.IsNil)
	}

	c.Assert(tc.Release("b"), qt.IsNil)
	c.Assert(f.released, qt.DeepEquals, []string{"b@1"})
	c.Assert(tc.Keys(), qt.DeepEquals, []string{"a", "c"})
	_, err := tc.Get("b")
	c.Assert(err, qt.ErrorIs, ErrNotFound)
}

func TestCloseReleasesInReverseOrder(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)

	for _, key := range []string{"a", "b", "c"} {
		_, err := tc.Load(f.source(key))
		c.Assert(err, qt.IsNil)
	}

	tc.Close()
	tc.Close()
	c.Assert(f.released, qt.DeepEquals, []string{"c@1", "b@1", "a@1"})

	_, err := tc.Load(f.source("d"))
	c.Assert(err, qt.ErrorIs, ErrClosed)
	_, err = tc.Get("a")
	c.Assert(err, qt.ErrorIs, ErrClosed)
	c.Assert(tc.Release("a"), qt.ErrorIs, ErrClosed)
	c.Assert(tc.Preload(f.source("e")), qt.ErrorIs, ErrClosed)
	c.Assert(tc.Len(), qt.Equals, 0)
}

func TestPreload(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)
	c.Cleanup(tc.Close)

	_, err := tc.Load(f.source("cached"))
	c.Assert(err, qt.IsNil)

	err = tc.Preload(f.source("a"), f.source("b"), f.source("cached"), f.source("c"))
	c.Assert(err, qt.IsNil)

	c.Assert(tc.Keys(), qt.DeepEquals, []string{"cached", "a", "b", "c"})
	c.Assert(f.reads["cached"], qt.Equals, 1)
	for _, key := range []string{"a", "b", "c"} {
		c.Check(f.reads[key], qt.Equals, 1)
		c.Check(f.builds[key], qt.Equals, 1)
	}
}

func TestPreloadPartialFailure(t *testing.T) {
	c := qt.New(t)
	f := newFixture()
	tc := newTestCache(c)
	c.Cleanup(tc.Close)
	errRead := errors.New("missing file")
	errBuild := errors.New("bad format")
	f.readErr["b"] = errRead
	f.buildErr["c"] = errBuild

	err := tc.Preload(f.source("a"), f.source("b"), f.source("c"), f.source("a"))
	c.Assert(err, qt.ErrorIs, errRead)
	c.Assert(err, qt.ErrorIs, errBuild)
	c.Assert(err, qt.ErrorIs, ErrDuplicateKey)
	c.Assert(tc.Keys(), qt.DeepEquals, []string{"a"})
}

func TestPreloadNothingPending(t *testing.T) {
	c := qt.New(t)
	tc := newTestCache(c)

	c.Assert(tc.Preload(), qt.IsNil)
	c.Assert(tc.Len(), qt.Equals, 0)
}

func TestOptions(t *testing.T) {
	c := qt.New(t)
	cfg := cacheConfig{workers: 4}

	WithWorkers(0)(&cfg)
	c.Assert(cfg.workers, qt.Equals, 4)
	WithWorkers(8)(&cfg)
	c.Assert(cfg.workers, qt.Equals, 8)
	WithIdleTimeout(-1)(&cfg)
	c.Assert(cfg.idleTimeout, qt.Equals, time.Duration(0))
}
