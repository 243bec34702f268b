package notify

import (
	"sync"
	"time"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const maxNotices = 20

// Notice is a transient message shown once to the user.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier accepts user-facing notices.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// Flash queues notices for one browser session until the next page render
// drains them. The oldest notices are dropped past a fixed capacity.
type Flash struct {
	mu      sync.Mutex
	notices []Notice
	now     func() time.Time
}

func NewFlash() *Flash {
	return &Flash{now: time.Now}
}

func (f *Flash) Success(msg string) { f.push(LevelSuccess, msg) }
func (f *Flash) Info(msg string)    { f.push(LevelInfo, msg) }
func (f *Flash) Warning(msg string) { f.push(LevelWarning, msg) }
func (f *Flash) Error(msg string)   { f.push(LevelError, msg) }

func (f *Flash) push(level Level, msg string) {
	if msg == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, Notice{Level: level, Message: msg, At: f.now()})
	if len(f.notices) > maxNotices {
		f.notices = f.notices[len(f.notices)-maxNotices:]
	}
}

// Drain returns all queued notices and clears the queue.
func (f *Flash) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.notices
	f.notices = nil
	return out
}

// Pending reports how many notices are queued.
func (f *Flash) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}
