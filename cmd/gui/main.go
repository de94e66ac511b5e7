package main

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Hussein-Mazeh/DocVault/internal/config"
	"github.com/Hussein-Mazeh/DocVault/internal/limiter"
	"github.com/Hussein-Mazeh/DocVault/internal/session"
	"github.com/Hussein-Mazeh/DocVault/internal/vault"
	"github.com/Hussein-Mazeh/DocVault/store"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func pickManifestPath(cfg *config.Config) string {
	// 1) Explicit argument wins (good for `go run ./cmd/gui manifest.json`)
	if len(os.Args) > 1 {
		return store.ResolveManifestPath(os.Args[1])
	}
	// 2) Configured default
	if cfg.ManifestPath != "" {
		return store.ResolveManifestPath(cfg.ManifestPath)
	}
	// 3) Current working directory (good for `go run` from repo root)
	if wd, err := os.Getwd(); err == nil {
		if p := filepath.Join(wd, store.DefaultManifestName); fileExists(p) {
			return p
		}
	}
	// 4) Executable's directory (good for a packaged viewer)
	if exe, err := os.Executable(); err == nil {
		if p := filepath.Join(filepath.Dir(exe), store.DefaultManifestName); fileExists(p) {
			return p
		}
	}
	// 5) Last resort: let the locked view report the missing manifest
	return store.DefaultManifestName
}

var royalBlue = color.NRGBA{R: 18, G: 57, B: 166, A: 255}        // #1239A6 (deep royal)
var royalBlueLight = color.NRGBA{R: 224, G: 233, B: 255, A: 255} // soft tint

var (
	clipMu    sync.Mutex
	clipTimer *time.Timer
)

type accentTheme struct{ fyne.Theme }

func (a accentTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	switch n {
	case theme.ColorNamePrimary:
		return royalBlue
	case theme.ColorNameFocus:
		return color.NRGBA{R: royalBlue.R, G: royalBlue.G, B: royalBlue.B, A: 200}
	case theme.ColorNameHover:
		return color.NRGBA{R: royalBlue.R, G: royalBlue.G, B: royalBlue.B, A: 30}
	}
	return a.Theme.Color(n, v)
}

// blueHeader creates a royal-blue title bar with white text.
func blueHeader(title string) fyne.CanvasObject {
	bg := canvas.NewRectangle(royalBlue)
	bg.SetMinSize(fyne.NewSize(0, 36))
	t := canvas.NewText(title, color.White)
	t.TextStyle = fyne.TextStyle{Bold: true}
	return container.NewMax(bg, container.NewPadded(t))
}

// sectionCard wraps a header + body with padding and a subtle border.
func sectionCard(title string, body fyne.CanvasObject) *fyne.Container {
	border := canvas.NewRectangle(color.NRGBA{R: 230, G: 230, B: 230, A: 255})
	content := container.NewBorder(
		blueHeader(title), nil, nil, nil,
		container.NewPadded(body),
	)
	return container.NewMax(border, content)
}

// makePrimary makes a button follow the app accent (royal blue).
func makePrimary(btn *widget.Button) *widget.Button {
	btn.Importance = widget.HighImportance
	return btn
}

func priorityColor(p vault.Priority) color.Color {
	switch p {
	case vault.PriorityCritical:
		return color.NRGBA{R: 196, G: 30, B: 30, A: 255}
	case vault.PriorityHigh:
		return color.NRGBA{R: 204, G: 132, B: 0, A: 255}
	case vault.PriorityLow:
		return color.NRGBA{R: 130, G: 130, B: 130, A: 255}
	default:
		return color.NRGBA{R: 60, G: 60, B: 60, A: 255}
	}
}

func matchesDoc(d session.Document, q string) bool {
	if strings.Contains(strings.ToLower(d.Title), q) {
		return true
	}
	for _, t := range d.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// scheduleClipboardClear arms (or re-arms) the timed clipboard clear after a
// copy. A non-positive delay disables the clear.
func scheduleClipboardClear(w fyne.Window, seconds int) {
	if seconds <= 0 {
		return
	}
	clipMu.Lock()
	defer clipMu.Unlock()
	if clipTimer != nil {
		clipTimer.Stop()
	}
	clipTimer = time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		fyne.Do(func() { w.Clipboard().SetContent("") })
	})
}

// clearClipboardNow clears the clipboard if a timed clear is pending, i.e.
// only when this session put the current content there. Must run on the UI
// thread.
func clearClipboardNow(w fyne.Window) {
	clipMu.Lock()
	pending := clipTimer != nil
	if pending {
		clipTimer.Stop()
		clipTimer = nil
	}
	clipMu.Unlock()
	if pending {
		w.Clipboard().SetContent("")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	manifestPath := pickManifestPath(cfg)
	man, loadErr := store.Load(manifestPath)
	if loadErr != nil {
		// Keep the window usable: the locked view reports the problem and
		// unlock attempts surface the empty-vault message.
		log.Printf("load manifest %s: %v", manifestPath, loadErr)
		man = nil
	}
	loadStatus := ""
	switch {
	case loadErr == nil:
	case errors.Is(loadErr, os.ErrNotExist):
		loadStatus = fmt.Sprintf("No vault manifest at %s.", manifestPath)
	case errors.Is(loadErr, vault.ErrMalformedManifest):
		loadStatus = "The vault file is malformed."
	default:
		loadStatus = fmt.Sprintf("Cannot read the vault: %v", loadErr)
	}

	st := session.New(man, limiter.New())

	a := app.New()
	a.Settings().SetTheme(accentTheme{Theme: theme.LightTheme()})

	w := a.NewWindow("DocVault")
	w.Resize(fyne.NewSize(900, 600))

	root := container.NewMax()
	w.SetContent(root)

	var showLogin func()
	var showVault func()

	idleTimeout := time.Duration(cfg.IdleTimeoutMinutes) * time.Minute
	idle := session.NewIdleMonitor(idleTimeout, func() {
		if !st.IsUnlocked() {
			return
		}
		st.Wipe()
		fyne.Do(func() {
			clearClipboardNow(w)
			dialog.ShowInformation("Session Locked", "No activity; the decrypted documents were wiped.", w)
			showLogin()
		})
	})
	withIdleReset := func(fn func()) func() {
		return func() {
			idle.Touch()
			fn()
		}
	}

	// Hiding the window is recorded but never wipes; the idle monitor is
	// the backstop that closes the exposure window.
	a.Lifecycle().SetOnExitedForeground(func() { st.MarkHidden() })
	a.Lifecycle().SetOnEnteredForeground(func() { st.MarkVisible() })
	a.Lifecycle().SetOnStopped(func() { st.Wipe() })

	w.SetCloseIntercept(func() {
		st.Wipe()
		w.Close()
	})

	// Ctrl+Shift+L is the panic gesture: wipe and drop to the locked view,
	// no confirmation.
	panicKey := &desktop.CustomShortcut{
		KeyName:  fyne.KeyL,
		Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift,
	}
	w.Canvas().AddShortcut(panicKey, func(fyne.Shortcut) {
		st.Wipe()
		clearClipboardNow(w)
		showLogin()
	})

	w.Canvas().SetOnTypedKey(func(*fyne.KeyEvent) {
		if st.IsUnlocked() {
			idle.Touch()
		}
	})

	showLogin = func() {
		pass := widget.NewPasswordEntry()
		pass.SetPlaceHolder("Vault passphrase")

		status := widget.NewLabel(loadStatus)
		status.Wrapping = fyne.TextWrapWord

		var btnUnlock *widget.Button
		countdownOn := false

		// startCountdown keeps the lockout message live until the gate
		// reopens. UI state is only touched through fyne.Do.
		startCountdown := func() {
			if countdownOn {
				return
			}
			countdownOn = true
			btnUnlock.Disable()
			go func() {
				for {
					remaining := st.LockoutRemaining()
					if remaining <= 0 {
						break
					}
					msg := fmt.Sprintf("Too many attempts. Try again in %s.", remaining.Round(time.Second))
					fyne.Do(func() { status.SetText(msg) })
					time.Sleep(time.Second)
				}
				fyne.Do(func() {
					countdownOn = false
					status.SetText("")
					btnUnlock.Enable()
				})
			}()
		}

		attempt := func() {
			pw := pass.Text
			if pw == "" {
				status.SetText("Enter the vault passphrase.")
				return
			}
			pass.SetText("")
			btnUnlock.Disable()
			status.SetText("Unlocking…")

			// Key derivation is deliberately slow; keep it off the UI
			// thread and marshal the outcome back.
			go func() {
				err := st.Unlock([]byte(pw))
				fyne.Do(func() {
					if err != nil {
						status.SetText(session.UserMessage(err))
						var rl *session.RateLimitedError
						if errors.As(err, &rl) {
							startCountdown()
							return
						}
						btnUnlock.Enable()
						return
					}
					btnUnlock.Enable()
					if !st.IsUnlocked() {
						// A wipe raced the unlock; stay locked.
						status.SetText("")
						return
					}
					idle.Touch()
					showVault()
				})
			}()
		}

		btnUnlock = makePrimary(widget.NewButton("Unlock", attempt))
		pass.OnSubmitted = func(string) { attempt() }

		if st.LockoutRemaining() > 0 {
			startCountdown()
		}

		loginCard := widget.NewCard(
			"Vault Locked",
			"Your passphrase decrypts the vault on this device only.",
			container.NewVBox(pass, status, btnUnlock),
		)
		root.Objects = []fyne.CanvasObject{
			container.NewCenter(container.NewMax(container.NewPadded(loginCard))),
		}
		root.Refresh()
	}

	showVault = func() {
		docs := st.Documents()
		sort.SliceStable(docs, func(i, j int) bool {
			return docs[i].Priority.Rank() < docs[j].Priority.Rank()
		})

		visible := make([]int, len(docs))
		for i := range visible {
			visible[i] = i
		}
		selected := -1

		docTitle := widget.NewLabel("Select a document")
		docTitle.TextStyle = fyne.TextStyle{Bold: true}
		docTags := widget.NewLabel("")
		docBody := widget.NewLabel("")
		docBody.Wrapping = fyne.TextWrapWord
		bodyScroll := container.NewVScroll(docBody)

		var list *widget.List

		applyFilter := func(q string) {
			q = strings.ToLower(strings.TrimSpace(q))
			visible = visible[:0]
			for i, d := range docs {
				if q == "" || matchesDoc(d, q) {
					visible = append(visible, i)
				}
			}
			selected = -1
			list.UnselectAll()
			list.Refresh()
		}

		list = widget.NewList(
			func() int { return len(visible) },
			func() fyne.CanvasObject {
				badge := canvas.NewText("", royalBlue)
				badge.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
				return container.NewHBox(badge, widget.NewLabel(""))
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				row := obj.(*fyne.Container)
				badge := row.Objects[0].(*canvas.Text)
				lbl := row.Objects[1].(*widget.Label)
				d := docs[visible[id]]
				badge.Text = fmt.Sprintf("[%-8s]", d.Priority)
				badge.Color = priorityColor(d.Priority)
				badge.Refresh()
				lbl.SetText(d.Title)
			},
		)
		list.OnSelected = func(id widget.ListItemID) {
			idle.Touch()
			selected = visible[id]
			d := docs[selected]
			docTitle.SetText(d.Title)
			if len(d.Tags) > 0 {
				docTags.SetText("tags: " + strings.Join(d.Tags, ", "))
			} else {
				docTags.SetText("")
			}
			docBody.SetText(string(d.Content))
			bodyScroll.ScrollToTop()
		}

		filter := widget.NewEntry()
		filter.SetPlaceHolder("Filter by title or tag")
		filter.OnChanged = func(q string) {
			idle.Touch()
			applyFilter(q)
		}

		btnCopy := widget.NewButton("Copy", withIdleReset(func() {
			if selected < 0 {
				return
			}
			d := docs[selected]
			w.Clipboard().SetContent(string(d.Content))
			clearAfter := cfg.ClipboardClear()
			scheduleClipboardClear(w, clearAfter)
			if clearAfter > 0 {
				dialog.ShowInformation("Copied",
					fmt.Sprintf("%q copied; the clipboard clears in %ds.", d.Title, clearAfter), w)
			} else {
				dialog.ShowInformation("Copied", fmt.Sprintf("%q copied to the clipboard.", d.Title), w)
			}
		}))
		btnLock := widget.NewButton("Lock", withIdleReset(func() {
			st.Wipe()
			clearClipboardNow(w)
			showLogin()
		}))

		trust := canvas.NewText("integrity verified", color.NRGBA{R: 22, G: 128, B: 58, A: 255})
		if !st.Verified() {
			trust = canvas.NewText("REDUCED TRUST: manifest is unsealed", color.NRGBA{R: 196, G: 30, B: 30, A: 255})
			trust.TextStyle = fyne.TextStyle{Bold: true}
		}

		topBar := container.NewBorder(nil, nil, nil,
			container.NewHBox(trust, btnCopy, makePrimary(btnLock)),
			filter,
		)

		left := sectionCard("Documents", list)
		docHeader := container.NewMax(
			canvas.NewRectangle(royalBlueLight),
			container.NewPadded(container.NewVBox(docTitle, docTags)),
		)
		right := container.NewBorder(docHeader, nil, nil, nil, bodyScroll)
		split := container.NewHSplit(left, container.NewPadded(right))
		split.SetOffset(0.35)

		root.Objects = []fyne.CanvasObject{
			container.NewBorder(
				container.NewVBox(blueHeader("DocVault — "+filepath.Base(manifestPath)), container.NewPadded(topBar)),
				nil, nil, nil,
				split,
			),
		}
		root.Refresh()
	}

	showLogin()
	w.ShowAndRun()
}
