package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	toastTTL      = 4 * time.Second
	maxToasts     = 4
	toastInterval = 500 * time.Millisecond
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	kind    toastKind
	text    string
	expires time.Time
}

// toasts is a bounded stack of transient notifications, newest last.
type toasts struct {
	items []toast
	now   func() time.Time
}

func (t *toasts) push(kind toastKind, text string) {
	now := time.Now
	if t.now != nil {
		now = t.now
	}
	t.items = append(t.items, toast{kind: kind, text: text, expires: now().Add(toastTTL)})
	if len(t.items) > maxToasts {
		t.items = t.items[len(t.items)-maxToasts:]
	}
}

// expire drops toasts past their deadline.
func (t *toasts) expire(at time.Time) {
	kept := t.items[:0]
	for _, item := range t.items {
		if at.Before(item.expires) {
			kept = append(kept, item)
		}
	}
	t.items = kept
}

func (t *toasts) view() string {
	if len(t.items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(t.items))
	for _, item := range t.items {
		lines = append(lines, toastStyles[item.kind].Render(item.text))
	}
	return strings.Join(lines, "\n")
}

type toastTickMsg time.Time

func toastTick() tea.Cmd {
	return tea.Tick(toastInterval, func(t time.Time) tea.Msg { return toastTickMsg(t) })
}
