package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Recent keeps the last N log lines for the health report.
type Recent struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

func NewRecent(size int) *Recent {
	if size <= 0 {
		size = 100
	}
	return &Recent{lines: make([]string, size)}
}

func (r *Recent) add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Last returns up to n lines, oldest first.
func (r *Recent) Last(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.lines)
	}
	if n <= 0 || n > count {
		n = count
	}
	out := make([]string, 0, n)
	for i := count - n; i < count; i++ {
		idx := i
		if r.full {
			idx = (r.next + i) % len(r.lines)
		}
		out = append(out, r.lines[idx])
	}
	return out
}

// Core returns a zapcore.Core writing into r.
func (r *Recent) Core(enab zapcore.LevelEnabler) zapcore.Core {
	return &recentCore{LevelEnabler: enab, recent: r}
}

type recentCore struct {
	zapcore.LevelEnabler
	recent *Recent
	fields []zapcore.Field
}

func (c *recentCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *recentCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *recentCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", ent.Time.UTC().Format(time.RFC3339), ent.Level.CapitalString(), ent.Message)

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, enc.Fields[k])
	}

	c.recent.add(b.String())
	return nil
}

func (c *recentCore) Sync() error { return nil }
