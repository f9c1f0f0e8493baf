package alert

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	// clockLayout renders the current time on the window.
	clockLayout = "15:04"
	// clockRefresh is how often the clock label is updated.
	clockRefresh = time.Second
	// titleSize is the text size of the headline.
	titleSize = 48
	// clockSize is the text size of the clock.
	clockSize = 96
)

// Window is the full-screen alarm window.
type Window struct {
	window    fyne.Window
	clock     *canvas.Text
	dismiss   *widget.Button
	onDismiss func()
	once      sync.Once
	stop      chan struct{}
}

// NewWindow builds the window on app. onDismiss runs once, when the user
// presses Dismiss or closes the window.
func NewWindow(app fyne.App, title, message string, onDismiss func()) *Window {
	w := &Window{
		window:    app.NewWindow(title),
		onDismiss: onDismiss,
		stop:      make(chan struct{}),
	}

	w.buildUI(title, message)
	w.window.SetFullScreen(true)

	// Closing the window is a dismissal too.
	w.window.SetCloseIntercept(w.trigger)

	return w
}

func (w *Window) buildUI(title, message string) {
	headline := canvas.NewText(title, nil)
	headline.TextSize = titleSize
	headline.TextStyle = fyne.TextStyle{Bold: true}
	headline.Alignment = fyne.TextAlignCenter

	w.clock = canvas.NewText(time.Now().Format(clockLayout), nil)
	w.clock.TextSize = clockSize
	w.clock.Alignment = fyne.TextAlignCenter

	body := widget.NewLabel(message)
	body.Wrapping = fyne.TextWrapWord
	body.Alignment = fyne.TextAlignCenter

	w.dismiss = widget.NewButton("Dismiss", w.trigger)
	w.dismiss.Importance = widget.HighImportance

	content := container.NewVBox(
		container.NewPadded(headline),
		w.clock,
		widget.NewSeparator(),
		container.NewPadded(body),
		container.NewCenter(w.dismiss),
	)

	w.window.SetContent(container.NewPadded(container.NewCenter(content)))
}

// Show displays the window and starts the clock.
func (w *Window) Show() {
	w.window.Show()
	w.window.RequestFocus()

	go w.tick()
}

// Close stops the clock and closes the window.
func (w *Window) Close() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}

	w.window.Close()
}

func (w *Window) trigger() {
	w.once.Do(func() {
		w.dismiss.Disable()

		if w.onDismiss != nil {
			w.onDismiss()
		}
	})
}

func (w *Window) tick() {
	ticker := time.NewTicker(clockRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case now := <-ticker.C:
			fyne.Do(func() {
				w.clock.Text = now.Format(clockLayout)
				w.clock.Refresh()
			})
		}
	}
}
