package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gekko3d/cursorrt"
	"github.com/pkg/errors"
)

// FileWatcher reports changes to a single file. Events are debounced
// and coalesced; the render loop drains Changes without blocking.
type FileWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	changes  chan string
	done     chan struct{}
	wg       sync.WaitGroup
	log      cursorrt.Logger
}

func NewFileWatcher(path string, debounce time.Duration, log cursorrt.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve watched path")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}

	fw := &FileWatcher{
		path:     abs,
		debounce: debounce,
		watcher:  w,
		changes:  make(chan string, 1),
		done:     make(chan struct{}),
		log:      cursorrt.OrNop(log),
	}
	fw.wg.Add(1)
	go fw.run()
	return fw, nil
}

func (fw *FileWatcher) Changes() <-chan string { return fw.changes }

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == fw.path
}

func (fw *FileWatcher) run() {
	defer fw.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-fw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			fw.log.Debugf("watched file event: %s", event)
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case fw.changes <- fw.path:
			default:
				// A reload is already pending.
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warnf("file watcher: %v", err)
		}
	}
}

func (fw *FileWatcher) Close() error {
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}
