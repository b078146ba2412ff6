package mount

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
)

// VolumesDir is where macOS mounts removable and network volumes.
const VolumesDir = "/Volumes"

// Watch calls fn each time an entry is created or removed in dir until ctx
// is canceled.
func Watch(ctx context.Context, dir string, fn func(fsnotify.Event) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) {
				continue
			}
			log.WithField("path", event.Name).Debugf("volume %s", event.Op)
			if err := fn(event); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
}
