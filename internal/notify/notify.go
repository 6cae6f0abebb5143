package notify

import (
	"log/slog"
	"sync"

	"rewardhub/internal/logger"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Notifier surfaces user-facing messages. Implementations must not block.
type Notifier interface {
	Notify(message string, severity Severity)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.WithComponent("Notify")}
}

func (n *LogNotifier) Notify(message string, severity Severity) {
	switch severity {
	case Error:
		n.log.Warn(message, "severity", string(severity))
	default:
		n.log.Info(message, "severity", string(severity))
	}
}

type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Recorder keeps the most recent notifications in memory, oldest first.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
}

func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, Notification{Message: message, Severity: severity})
	if r.limit > 0 && len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Fanout delivers every notification to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(message string, severity Severity) {
	for _, n := range f {
		n.Notify(message, severity)
	}
}
