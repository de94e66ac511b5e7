package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/DocVault/internal/config"
	"github.com/Hussein-Mazeh/DocVault/internal/limiter"
	"github.com/Hussein-Mazeh/DocVault/internal/session"
	"github.com/Hussein-Mazeh/DocVault/internal/vault"
)

var persistLockout bool

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Unlock the vault and browse it interactively",
	Long: `Open prompts for the vault passphrase and starts an interactive
session. Failed attempts feed a progressive lockout; five consecutive
failures close the gate for 15 seconds, doubling per failure up to five
minutes. The session wipes itself after 15 minutes without input, on
Ctrl+C, and on exit.`,
	RunE: runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&persistLockout, "persist-lockout", false,
		"persist rate-limiter state across restarts (SQLite)")
}

func runOpen(cmd *cobra.Command, args []string) error {
	path := manifestPath()
	man, err := loadManifest(path)
	if err != nil {
		return err
	}

	lim, closeLim, err := buildLimiter()
	if err != nil {
		return err
	}
	defer closeLim()

	st := session.New(man, lim)
	r := newRepl(st, man, path)

	// Ctrl+C doubles as the CLI panic gesture: scrub the session, then
	// memguard destroys its buffers and terminates the process.
	memguard.CatchSignal(func(os.Signal) {
		st.Wipe()
		r.clearClipboard()
	}, syscall.SIGINT, syscall.SIGTERM)
	defer memguard.Purge()

	r.idle = session.NewIdleMonitor(r.idleTimeout, func() {
		st.Wipe()
		r.clearClipboard()
		fmt.Fprintln(os.Stderr, "\nSession locked after inactivity. Press Enter to continue.")
	})
	defer r.idle.Stop()

	if !man.Signed() {
		log.Warnf("manifest carries no integrity seal; documents will open in reduced-trust mode")
	}

	if err := r.unlockBlocking(); err != nil {
		return err
	}
	r.idle.Touch()

	fmt.Println("Vault unlocked. Type 'help' for commands.")
	return r.loop()
}

// buildLimiter returns the unlock rate limiter, backed by the SQLite
// lockout store when persistence is requested by flag or config.
func buildLimiter() (*limiter.Limiter, func(), error) {
	if !persistLockout && cfg.LockoutPath == "" {
		return limiter.New(), func() {}, nil
	}

	path := cfg.LockoutPath
	if path == "" {
		var err error
		path, err = config.DefaultLockoutPath()
		if err != nil {
			return nil, nil, err
		}
	}

	store, err := limiter.OpenSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open lockout store: %w", err)
	}
	lim, err := limiter.NewWithStore(store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	log.Debugf("lockout state persisted at %s", path)
	return lim, func() { _ = store.Close() }, nil
}

// repl drives the interactive session. Display numbering comes from order,
// the manifest indices sorted by priority, so 'show 1' is always the most
// critical document.
type repl struct {
	st          *session.Store
	man         *vault.Manifest
	path        string
	idle        *session.IdleMonitor
	idleTimeout time.Duration
	order       []int

	mu        sync.Mutex
	clipTimer *time.Timer
	copied    bool
}

func newRepl(st *session.Store, man *vault.Manifest, path string) *repl {
	order := make([]int, len(man.Files))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return man.Files[order[i]].Priority.Rank() < man.Files[order[j]].Priority.Rank()
	})

	idleTimeout := time.Duration(cfg.IdleTimeoutMinutes) * time.Minute
	if idleTimeout <= 0 {
		idleTimeout = session.DefaultIdleTimeout
	}
	return &repl{st: st, man: man, path: path, idleTimeout: idleTimeout, order: order}
}

// unlockBlocking prompts until the vault opens, sitting out lockout windows
// with a countdown. Only defects that retrying cannot fix abort it.
func (r *repl) unlockBlocking() error {
	for {
		if remaining := r.st.LockoutRemaining(); remaining > 0 {
			waitForGate(remaining)
		}
		ok, err := r.unlockOnce()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// unlockOnce runs a single unlock attempt: prompt, derive, report. It
// returns false for failures worth retrying; fatal manifest defects come
// back as errors.
func (r *repl) unlockOnce() (bool, error) {
	pw, err := promptPassphrase("Passphrase: ")
	if err != nil {
		return false, fmt.Errorf("read passphrase: %w", err)
	}
	// An accidental Enter is not an attempt; do not charge the limiter.
	if len(pw) == 0 {
		return false, nil
	}

	_, cleanup := startSpinner("Deriving keys and decrypting...")
	err = r.st.Unlock(pw)
	cleanup()

	if err == nil {
		return true, nil
	}
	fmt.Fprintln(os.Stderr, session.UserMessage(err))
	if errors.Is(err, session.ErrVaultEmpty) || errors.Is(err, vault.ErrMalformedManifest) {
		return false, err
	}
	return false, nil
}

// waitForGate shows a live countdown until the lockout window closes.
func waitForGate(remaining time.Duration) {
	deadline := time.Now().Add(remaining)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			break
		}
		fmt.Fprintf(os.Stderr, "\rToo many attempts. Unlock opens in %3ds...", int(left.Seconds())+1)
		time.Sleep(time.Second)
	}
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", 44))
}

func (r *repl) loop() error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("dv> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Println()
			r.shutdown()
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.idle.Touch()

		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]

		switch cmd {
		case "help":
			printREPLHelp()
		case "list":
			r.list()
		case "show":
			r.show(args)
		case "copy":
			r.copy(args)
		case "tags":
			r.tags()
		case "status":
			r.status()
		case "lock":
			r.lock()
		case "unlock":
			r.unlock()
		case "panic":
			r.panicWipe()
		case "quit", "exit":
			r.shutdown()
			return nil
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s (try 'help')\n", cmd)
		}
	}
}

func printREPLHelp() {
	fmt.Println("Commands:")
	fmt.Println("  list           list documents (cleartext metadata, priority order)")
	fmt.Println("  show <id|#>    print a document")
	fmt.Println("  copy <id|#>    copy a document to the clipboard (timed clear)")
	fmt.Println("  tags           list tags and their document counts")
	fmt.Println("  status         session, integrity and lockout state")
	fmt.Println("  lock           wipe decrypted documents, keep the session open")
	fmt.Println("  unlock         re-prompt for the passphrase")
	fmt.Println("  panic          wipe everything and exit immediately")
	fmt.Println("  quit           wipe and exit")
}

// resolve maps a display number or document id onto manifest metadata.
func (r *repl) resolve(arg string) (*vault.Document, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(r.order) {
			return nil, false
		}
		return &r.man.Files[r.order[n-1]], true
	}
	for i := range r.man.Files {
		if r.man.Files[i].ID == arg {
			return &r.man.Files[i], true
		}
	}
	return nil, false
}

func (r *repl) list() {
	for n, idx := range r.order {
		d := &r.man.Files[idx]
		fmt.Printf("%3d. %s %s\n", n+1, priorityLabel(d.Priority), d.Title)
		if len(d.Tags) > 0 {
			fmt.Printf("     tags: %s\n", strings.Join(d.Tags, ", "))
		}
	}
	if !r.st.IsUnlocked() {
		fmt.Println("(locked: 'unlock' to read documents)")
	}
}

func (r *repl) show(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: show <id|#>")
		return
	}
	meta, ok := r.resolve(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "no document %q\n", args[0])
		return
	}
	doc, ok := r.st.Document(meta.ID)
	if !ok {
		fmt.Fprintln(os.Stderr, "vault is locked; run 'unlock' first")
		return
	}

	fmt.Printf("%s %s\n", priorityLabel(doc.Priority), doc.Title)
	if len(doc.Tags) > 0 {
		fmt.Printf("tags: %s\n", strings.Join(doc.Tags, ", "))
	}
	fmt.Println()
	os.Stdout.Write(doc.Content)
	if len(doc.Content) == 0 || doc.Content[len(doc.Content)-1] != '\n' {
		fmt.Println()
	}
}

func (r *repl) copy(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: copy <id|#>")
		return
	}
	meta, ok := r.resolve(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "no document %q\n", args[0])
		return
	}
	doc, ok := r.st.Document(meta.ID)
	if !ok {
		fmt.Fprintln(os.Stderr, "vault is locked; run 'unlock' first")
		return
	}

	if err := clipboard.WriteAll(string(doc.Content)); err != nil {
		fmt.Fprintf(os.Stderr, "clipboard unavailable: %v\n", err)
		return
	}
	clearAfter := cfg.ClipboardClear()
	if clearAfter > 0 {
		r.scheduleClipboardClear(clearAfter)
		fmt.Printf("Copied %q to the clipboard; clearing in %ds.\n", doc.Title, clearAfter)
	} else {
		r.markCopied()
		fmt.Printf("Copied %q to the clipboard (timed clear disabled).\n", doc.Title)
	}
}

func (r *repl) tags() {
	counts := make(map[string]int)
	for i := range r.man.Files {
		for _, t := range r.man.Files[i].Tags {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		fmt.Println("No tags.")
		return
	}
	names := make([]string, 0, len(counts))
	for t := range counts {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		fmt.Printf("  %s (%d)\n", t, counts[t])
	}
}

func (r *repl) status() {
	fmt.Printf("Vault:      %s\n", r.path)
	fmt.Printf("Documents:  %d\n", len(r.man.Files))
	switch {
	case r.st.IsUnlocked() && r.st.Verified():
		fmt.Println("State:      unlocked (integrity verified)")
	case r.st.IsUnlocked():
		fmt.Println("State:      unlocked (REDUCED TRUST: manifest is unsealed)")
	default:
		fmt.Println("State:      locked")
	}
	if n := r.st.Attempts(); n > 0 {
		fmt.Printf("Attempts:   %d failed since last success\n", n)
	}
	if remaining := r.st.LockoutRemaining(); remaining > 0 {
		fmt.Printf("Lockout:    %s remaining\n", remaining.Round(time.Second))
	}
	fmt.Printf("Idle wipe:  after %s without input\n", r.idleTimeout)
}

func (r *repl) lock() {
	r.st.Wipe()
	r.clearClipboard()
	fmt.Println("Locked.")
}

func (r *repl) unlock() {
	if r.st.IsUnlocked() {
		fmt.Println("Already unlocked.")
		return
	}
	if remaining := r.st.LockoutRemaining(); remaining > 0 {
		fmt.Fprintln(os.Stderr, session.UserMessage(&session.RateLimitedError{RetryAfter: remaining}))
		return
	}
	ok, err := r.unlockOnce()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if ok {
		r.idle.Touch()
		fmt.Println("Vault unlocked.")
	}
}

// panicWipe is the explicit panic gesture: scrub and terminate, no
// confirmation, no farewell.
func (r *repl) panicWipe() {
	r.st.Wipe()
	r.clearClipboard()
	r.idle.Stop()
	memguard.SafeExit(0)
}

func (r *repl) shutdown() {
	r.st.Wipe()
	r.clearClipboard()
	r.idle.Stop()
}

func (r *repl) markCopied() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copied = true
}

func (r *repl) scheduleClipboardClear(seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.copied = true
	if r.clipTimer != nil {
		r.clipTimer.Stop()
	}
	r.clipTimer = time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		_ = clipboard.WriteAll("")
	})
}

// clearClipboard clears the clipboard now if this session ever wrote to it,
// and cancels any pending timed clear.
func (r *repl) clearClipboard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clipTimer != nil {
		r.clipTimer.Stop()
		r.clipTimer = nil
	}
	if r.copied {
		_ = clipboard.WriteAll("")
		r.copied = false
	}
}
