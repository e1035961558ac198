package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const filteredKey = "_filtered"

// AsyncHook ghi log bất đồng bộ ra nhiều writer để không block request handling
type AsyncHook struct {
	writers []io.Writer
	entries chan *logrus.Entry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

// NewAsyncHookWithWriters tạo async hook với buffer bufferSize entries
func NewAsyncHookWithWriters(writers []io.Writer, bufferSize int) *AsyncHook {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	h := &AsyncHook{
		writers: writers,
		entries: make(chan *logrus.Entry, bufferSize),
	}
	h.wg.Add(1)
	go h.processEntries()
	return h
}

func (h *AsyncHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire không block: channel đầy thì bỏ entry
func (h *AsyncHook) Fire(entry *logrus.Entry) error {
	if _, skip := entry.Data[filteredKey]; skip {
		return nil
	}

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		h.write(entry)
		return nil
	}

	select {
	case h.entries <- cloneEntry(entry):
	default:
	}
	return nil
}

// cloneEntry chép entry cho goroutine ghi log; Dup bỏ mất level và message
func cloneEntry(entry *logrus.Entry) *logrus.Entry {
	e := entry.Dup()
	e.Level = entry.Level
	e.Message = entry.Message
	e.Caller = entry.Caller
	return e
}

func (h *AsyncHook) processEntries() {
	defer h.wg.Done()
	for entry := range h.entries {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Không dùng logger ở đây để tránh vòng lặp
					fmt.Fprintf(os.Stderr, "[LOGGER PANIC] %v\n", r)
				}
			}()
			h.write(entry)
		}()
	}
}

func (h *AsyncHook) write(entry *logrus.Entry) {
	var data []byte
	var err error
	if entry.Logger != nil && entry.Logger.Formatter != nil {
		data, err = entry.Logger.Formatter.Format(entry)
	} else {
		var line string
		line, err = entry.String()
		data = []byte(line)
	}
	if err != nil {
		return
	}
	for _, w := range h.writers {
		_, _ = w.Write(data)
	}
}

// Close đóng hook và đợi các entry còn lại được ghi xong
func (h *AsyncHook) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.entries)
	h.wg.Wait()
	return nil
}

// FilterHook đánh dấu các entry thuộc module không nằm trong danh sách cho phép
type FilterHook struct {
	allowed map[string]bool
}

// NewFilterHook nhận danh sách "order,wallet,..."; rỗng hoặc "*" = cho phép tất cả
func NewFilterHook(modules string) *FilterHook {
	h := &FilterHook{allowed: map[string]bool{}}
	for _, m := range strings.Split(modules, ",") {
		if m = strings.TrimSpace(m); m != "" {
			h.allowed[m] = true
		}
	}
	if h.allowed["*"] {
		h.allowed = map[string]bool{}
	}
	return h
}

func (h *FilterHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FilterHook) Fire(entry *logrus.Entry) error {
	if len(h.allowed) == 0 || entry.Level <= logrus.ErrorLevel {
		return nil
	}
	module, ok := entry.Data["module"].(string)
	if ok && !h.allowed[module] {
		entry.Data[filteredKey] = true
	}
	return nil
}
