//go:build gui

// Package gui shows dictation status in a small floating window that does
// not take focus, with a tray menu to quit.
package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/go-gl/glfw/v3.3/glfw"

	"limbo/dictation"
)

const appName = "Limbo Voice"

type App struct {
	mu      sync.Mutex
	fyneApp fyne.App
	window  fyne.Window
	status  *StatusWidget
	onReady func()
	onQuit  func()
	posX    int
	posY    int
}

// NewApp prepares the window. onReady runs in its own goroutine once the
// event loop is about to start; onQuit runs when the tray Quit item is
// chosen.
func NewApp(onReady, onQuit func()) *App {
	return &App{onReady: onReady, onQuit: onQuit}
}

// Run takes over the calling (main) thread until Quit.
func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.limbo.voice")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	if desk, ok := a.fyneApp.(desktop.App); ok {
		menu := fyne.NewMenu(appName,
			fyne.NewMenuItem("Quit "+appName, func() {
				a.mu.Lock()
				quit := a.onQuit
				a.mu.Unlock()
				if quit != nil {
					// run returns and quits the app
					quit()
					return
				}
				a.fyneApp.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)
		desk.SetSystemTrayIcon(fyne.NewStaticResource("tray.png", trayIcon()))
	}

	var screenW, screenH int
	if monitor := glfw.GetPrimaryMonitor(); monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080
	}

	// Frameless on desktop
	if drv, ok := a.fyneApp.Driver().(desktop.Driver); ok {
		a.window = drv.CreateSplashWindow()
	} else {
		a.window = a.fyneApp.NewWindow(appName)
	}

	a.status = NewStatusWidget()
	a.window.SetContent(a.status)
	a.window.SetFixedSize(true)
	a.window.SetPadded(false)

	size := a.status.MinSize()
	a.window.Resize(size)

	// Bottom centre, clear of the dock
	a.posX = (screenW - int(size.Width)) / 2
	a.posY = screenH - int(size.Height) - 40

	go a.onReady()

	// Hidden until the first non-idle state
	a.fyneApp.Run()
	a.status.Stop()
	return nil
}

// OnQuit replaces the tray Quit callback. Safe to call while running.
func (a *App) OnQuit(fn func()) {
	a.mu.Lock()
	a.onQuit = fn
	a.mu.Unlock()
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// Render implements dictation.View.
func (a *App) Render(s dictation.State) {
	if a.status == nil {
		return
	}
	a.status.SetState(s)
	if s.Phase.Visible() {
		a.show()
	} else {
		a.hide()
	}
}

func (a *App) show() {
	fyne.Do(func() {
		if a.window == nil {
			return
		}
		// Attributes must be set before Show so the window floats without
		// stealing focus from the typing target.
		if glfwWin := glfw.GetCurrentContext(); glfwWin != nil {
			glfwWin.SetPos(a.posX, a.posY)
			glfwWin.SetAttrib(glfw.FocusOnShow, glfw.False)
			glfwWin.SetAttrib(glfw.Floating, glfw.True)
			glfwWin.Show()
			return
		}
		a.window.Show()
	})
}

func (a *App) hide() {
	fyne.Do(func() {
		if a.window != nil {
			a.window.Hide()
		}
	})
}
