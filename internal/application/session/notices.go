package session

import (
	"sync"
	"time"
)

// Niveles de aviso.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Tipos de aviso que publica el controlador.
const (
	KindCardActivated = "card_activated"
	KindCardRejected  = "session_busy"
	KindIngestBacklog = "ingest_backlog"
	KindStorageError  = "storage_error"
	KindCheckout      = "checkout"
	KindSessionEnded  = "session_ended"
	KindSetChanged    = "set_changed"
	KindRejected      = "command_rejected"
)

// Notice aviso no bloqueante para la interfaz del kiosko.
type Notice struct {
	Seq     uint64
	Level   string
	Kind    string
	CardID  string
	Message string
	At      time.Time
}

// noticeLog búfer circular de avisos recientes. Lo escriben el actor y la ingesta; lo lee HTTP.
type noticeLog struct {
	mu   sync.Mutex
	buf  []Notice
	next int
	full bool
	seq  uint64
}

func newNoticeLog(size int) *noticeLog {
	if size <= 0 {
		size = 64
	}
	return &noticeLog{buf: make([]Notice, size)}
}

func (l *noticeLog) add(n Notice) Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	n.Seq = l.seq
	l.buf[l.next] = n
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	return n
}

// since devuelve, en orden, los avisos con Seq > after que siguen en el búfer.
func (l *noticeLog) since(after uint64) []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []Notice{}
	start, count := 0, l.next
	if l.full {
		start, count = l.next, len(l.buf)
	}
	for i := 0; i < count; i++ {
		n := l.buf[(start+i)%len(l.buf)]
		if n.Seq > after {
			out = append(out, n)
		}
	}
	return out
}
