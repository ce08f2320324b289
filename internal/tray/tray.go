// Package tray shows the last finalized sign in the system tray and lets the
// user pause analysis.
package tray

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/sink"
)

const (
	titleEnabled  = "● Enabled"
	titleDisabled = "○ Disabled"
	lastNone      = "Last: none"
)

// Tray is the system tray menu.
type Tray struct {
	mu       sync.RWMutex
	enabled  bool
	last     string
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()

	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a Tray in the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled, last: lastNone}
}

// OnToggle sets the callback run when analysis is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run by the "Open dashboard" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// Follow updates the last sign from sub until ctx is done.
func (t *Tray) Follow(ctx context.Context, sub *sink.Subscription) {
	sink.Run(ctx, sub, t.SetLast)
}

func (t *Tray) onReady() {
	systray.SetTitle("LSA")
	systray.SetTooltip("LSA sign interpreter")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume sign analysis")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(t.last, "Last detected sign")
	t.menuLast.Disable()
	t.mu.Unlock()

	systray.AddSeparator()
	menuOpen := systray.AddMenuItem("Open dashboard...", "Open the web dashboard")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit the interpreter")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock: the callback may call back into the tray
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// SetLast records r as the most recent sign.
func (t *Tray) SetLast(r fusion.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = FormatLast(r)
	if t.menuLast != nil {
		t.menuLast.SetTitle(t.last)
	}
}

// Last returns the current "Last:" menu text.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled reports the toggle state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// FormatLast renders r as "Last: SIGN (NN%)".
func FormatLast(r fusion.Result) string {
	if r.Sign == "" {
		return lastNone
	}
	return fmt.Sprintf("Last: %s (%d%%)", r.Sign, int(math.Round(r.Confidence*100)))
}

func toggleTitle(enabled bool) string {
	if enabled {
		return titleEnabled
	}
	return titleDisabled
}
