package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the .env file and invokes onChange with a freshly loaded
// Config whenever it is written. It returns a stop function. A missing .env
// file is not an error; the watcher simply never fires.
func Watch(onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	envPath, err := filepath.Abs(".env")
	if err != nil {
		watcher.Close()
		return nil, err
	}

	// Watch the directory rather than the file itself: editors replace .env
	// atomically, which would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(envPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != envPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					onChange(Reload())
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
