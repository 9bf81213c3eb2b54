package preset

import (
	"fmt"

	"github.com/fsnotify/fsnotify"

	"github.com/f1lt3r/subsynth/synth"
)

// Watch reloads the preset file whenever it changes and sends the parsed
// patch on params. Parse errors go to errors and the previous patch stays in
// effect. Closing done stops the watcher.
func Watch(path string, params chan<- *synth.Params, errors chan<- error, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	go func() {
	loop:
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					break loop
				}
				// Editors tend to rename over the file instead of writing
				// in place.
				if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) > 0 {
					p, err := LoadJSON(path)
					if err != nil {
						errors <- err
						continue loop
					}
					params <- p
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					break loop
				}
				errors <- err
			case <-done:
				break loop
			}
		}
		// ignore close error
		watcher.Close()
	}()
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}
	return nil
}
