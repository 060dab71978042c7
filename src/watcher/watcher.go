package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"iconsmith/src/common"
	"iconsmith/src/config"
)

// DebounceDelay is how long the source must stay quiet before regenerating
const DebounceDelay = 500 * time.Millisecond

// RegenerateFunc produces every configured output from the source
type RegenerateFunc func() []*common.Result

// Watcher monitors the source image and regenerates icons when it changes
type Watcher struct {
	cfg        *config.Config
	source     string
	regenerate RegenerateFunc
	watcher    *fsnotify.Watcher
	events     chan Event

	mu       sync.Mutex // guards debounce and stopped
	debounce map[string]*time.Timer
	stopped  bool

	runMu sync.Mutex // serialises regenerate calls
	done  chan struct{}
	wg    sync.WaitGroup
}

// Event represents a change to the source image
type Event struct {
	Type     EventType
	FilePath string
	Results  []*common.Result // nil for EventDeleted
}

// EventType represents the type of file event
type EventType int

const (
	EventCreated EventType = iota
	EventModified
	EventDeleted
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// NewWatcher creates a new source watcher
func NewWatcher(cfg *config.Config, regenerate RegenerateFunc) (*Watcher, error) {
	if regenerate == nil {
		return nil, fmt.Errorf("regenerate function is required")
	}

	source, err := filepath.Abs(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:        cfg,
		source:     filepath.Clean(source),
		regenerate: regenerate,
		watcher:    fsWatcher,
		events:     make(chan Event, 100),
		debounce:   make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}, nil
}

// Start begins monitoring the directory that holds the source image
func (w *Watcher) Start() error {
	// Editors often replace files by rename, which drops a watch on the file itself
	dir := filepath.Dir(w.source)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}
	log.Printf("Watching source: %s", w.source)

	// Start event processing goroutine
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// processEvents handles fsnotify events for the source file
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.source {
				continue
			}

			// A chmod-only event must not replace a pending write in the debounce
			if event.Op == fsnotify.Chmod {
				continue
			}

			w.schedule(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// schedule debounces rapid successive events on the same path
func (w *Watcher) schedule(event fsnotify.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	if timer, exists := w.debounce[event.Name]; exists {
		timer.Stop()
	}

	w.debounce[event.Name] = time.AfterFunc(DebounceDelay, func() {
		w.mu.Lock()
		delete(w.debounce, event.Name)
		w.mu.Unlock()

		w.handleEvent(event)
	})
}

// handleEvent regenerates outputs for a single debounced event
func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType EventType

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreated
		log.Printf("Source created: %s", event.Name)
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventModified
		log.Printf("Source modified: %s", event.Name)
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eventType = EventDeleted
		log.Printf("Source removed: %s", event.Name)
	default:
		return
	}

	var results []*common.Result
	if eventType != EventDeleted {
		w.runMu.Lock()
		if w.isStopped() {
			w.runMu.Unlock()
			return
		}
		results = w.regenerate()
		w.runMu.Unlock()
	}

	w.publish(Event{
		Type:     eventType,
		FilePath: event.Name,
		Results:  results,
	})
}

func (w *Watcher) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *Watcher) publish(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	select {
	case w.events <- event:
	default:
		log.Printf("Event channel full, dropping %v event for %s", event.Type, event.FilePath)
	}
}

// Events returns the event channel
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for name, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, name)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()

	// Wait for an in-flight regeneration before closing the channel
	w.runMu.Lock()
	w.mu.Lock()
	close(w.events)
	w.mu.Unlock()
	w.runMu.Unlock()

	return err
}
