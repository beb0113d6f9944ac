package scripting

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Kind says what an edited file should be reloaded as.
type Kind uint8

const (
	KindNone Kind = iota
	KindScript
	KindBlueprint
)

// Routes maps watched files to reload kinds. Scripts must sit directly in
// ScriptDir; blueprints are the single file at BlueprintPath.
type Routes struct {
	ScriptDir     string
	BlueprintPath string
}

// Classify returns KindNone for files that belong to neither route.
func (r Routes) Classify(path string) Kind {
	path = filepath.Clean(path)
	if r.ScriptDir != "" && IsScriptFile(path) && filepath.Dir(path) == filepath.Clean(r.ScriptDir) {
		return KindScript
	}
	if r.BlueprintPath != "" && path == filepath.Clean(r.BlueprintPath) {
		return KindBlueprint
	}
	return KindNone
}

// dirs returns the directories to watch, without duplicates.
func (r Routes) dirs() []string {
	var out []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		for _, d := range out {
			if d == dir {
				return
			}
		}
		out = append(out, dir)
	}
	if r.ScriptDir != "" {
		add(r.ScriptDir)
	}
	if r.BlueprintPath != "" {
		add(filepath.Dir(r.BlueprintPath))
	}
	return out
}

// Change is one file the frame loop should reload.
type Change struct {
	Path string
	Kind Kind
}

const defaultDebounce = 100 * time.Millisecond

// Watcher reports edited scripts and blueprints. It only hands changes over
// the Changes channel; the frame loop does the reloading, so the World is
// still touched from one goroutine only.
type Watcher struct {
	fs       *fsnotify.Watcher
	routes   Routes
	debounce time.Duration
	Changes  chan Change
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewWatcher watches the directories behind routes. Directories that do not
// exist are an error; callers skip routes they have nothing for.
func NewWatcher(routes Routes) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range routes.dirs() {
		if err := fs.Add(dir); err != nil {
			_ = fs.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fs:       fs,
		routes:   routes,
		debounce: defaultDebounce,
		Changes:  make(chan Change, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Close stops the watcher. Changes and Errors are closed once the run loop
// has exited, so ranging over them terminates.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		<-w.done
		close(w.Changes)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			kind := w.routes.Classify(ev.Name)
			if kind == KindNone {
				continue
			}
			// Editors save in bursts (create, write, chmod).
			now := time.Now()
			if t, ok := last[ev.Name]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[ev.Name] = now
			select {
			case w.Changes <- Change{Path: ev.Name, Kind: kind}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func IsScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".lua"
}
