// Package logging holds the slog handler and file setup shared by the tron
// binaries. The interactive binary owns the terminal, so its logs go to a
// file or nowhere.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// JSONHandler writes one JSON object per record. With Indent set the object
// is spread over several lines, which reads better when tailing a log file
// next to a running game.
type JSONHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	source bool
	indent bool

	attrs  []scoped
	groups []string
}

// scoped is an attribute bound to the groups open when it was added.
type scoped struct {
	groups []string
	attr   slog.Attr
}

// Options configures a JSONHandler.
type Options struct {
	Level     slog.Leveler
	AddSource bool
	Indent    bool
}

func NewJSONHandler(w io.Writer, opts Options) *JSONHandler {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &JSONHandler{
		w:      w,
		mu:     &sync.Mutex{},
		level:  level,
		source: opts.AddSource,
		indent: opts.Indent,
	}
}

func (h *JSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JSONHandler) Handle(_ context.Context, r slog.Record) error {
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}

	entry := map[string]any{
		"time":  when.Format(time.RFC3339Nano),
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	if h.source {
		if src := caller(r.PC); src != "" {
			entry["source"] = src
		}
	}

	for _, a := range h.attrs {
		put(nest(entry, a.groups), a.attr)
	}
	target := nest(entry, h.groups)
	r.Attrs(func(a slog.Attr) bool {
		put(target, a)
		return true
	})

	var (
		b   []byte
		err error
	)
	if h.indent {
		b, err = json.MarshalIndent(entry, "", "  ")
	} else {
		b, err = json.Marshal(entry)
	}
	if err != nil {
		b = []byte(`{"time":` + strconv.Quote(entry["time"].(string)) +
			`,"level":` + strconv.Quote(r.Level.String()) +
			`,"msg":` + strconv.Quote(r.Message) +
			`,"log_error":` + strconv.Quote(err.Error()) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *JSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]scoped(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, scoped{groups: h.groups, attr: a})
	}
	return &clone
}

func (h *JSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// nest walks (creating as needed) the group maps and returns the innermost.
func nest(root map[string]any, groups []string) map[string]any {
	dst := root
	for _, g := range groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	return dst
}

func put(dst map[string]any, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		members := v.Group()
		if len(members) == 0 {
			return
		}
		// Empty keys inline the group's members.
		child := dst
		if a.Key != "" {
			child = map[string]any{}
			dst[a.Key] = child
		}
		for _, m := range members {
			put(child, m)
		}
		return
	}
	if a.Key == "" {
		return
	}
	dst[a.Key] = plain(v)
}

func plain(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.String()
	}
}

func caller(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	f, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
