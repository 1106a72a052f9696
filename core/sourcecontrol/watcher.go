package sourcecontrol

import (
	"context"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"ci-orchestrator/core/models"
)

// WorkspaceWatcher turns filesystem events under a project workspace into
// synthetic modifications, for projects that build from a local checkout
// instead of polling tool history.
type WorkspaceWatcher struct {
	dir     string
	watcher *fsnotify.Watcher
	mods    chan *models.Modification
}

// NewWorkspaceWatcher creates a watcher for the given workspace directory
func NewWorkspaceWatcher(dir string) (*WorkspaceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	return &WorkspaceWatcher{
		dir:     dir,
		watcher: w,
		mods:    make(chan *models.Modification, 64),
	}, nil
}

// Modifications returns the channel synthetic modifications are delivered on
func (ww *WorkspaceWatcher) Modifications() <-chan *models.Modification {
	return ww.mods
}

// Start pumps filesystem events until the context is cancelled
func (ww *WorkspaceWatcher) Start(ctx context.Context) {
	defer ww.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ww.watcher.Events:
			if !ok {
				return
			}
			if mod := ww.toModification(event); mod != nil {
				select {
				case ww.mods <- mod:
				default:
					// A build is already due; dropping extra events loses nothing.
				}
			}
		case err, ok := <-ww.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Workspace watcher error for %s: %v", ww.dir, err)
		}
	}
}

// toModification maps one filesystem event onto the canonical change model
func (ww *WorkspaceWatcher) toModification(event fsnotify.Event) *models.Modification {
	var changeType string
	switch {
	case event.Has(fsnotify.Create):
		changeType = "create"
	case event.Has(fsnotify.Write):
		changeType = "edit"
	case event.Has(fsnotify.Remove):
		changeType = "delete"
	case event.Has(fsnotify.Rename):
		changeType = "rename"
	default:
		return nil
	}

	folder, file := models.SplitElementPath(event.Name)
	return &models.Modification{
		UserName:   "filesystem",
		ModifiedAt: time.Now(),
		FolderName: folder,
		FileName:   file,
		ChangeType: changeType,
	}
}
