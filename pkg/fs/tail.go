package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

var ErrIsDir = errors.New("path is a directory")

// TFile reads a file that another process is appending to.  Read blocks
// at end of file until more data is written, the file is removed or
// renamed, or Stop is called.
type TFile struct {
	name    string
	f       *os.File
	watcher *fsnotify.Watcher
}

func TailFile(name string) (*TFile, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrIsDir
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	// The directory is watched since events on a removed file are
	// dropped by the watcher.
	name = filepath.Clean(name)
	if err := watcher.Add(filepath.Dir(name)); err != nil {
		watcher.Close()
		f.Close()
		return nil, err
	}
	return &TFile{name: name, f: f, watcher: watcher}, nil
}

func (t *TFile) Read(b []byte) (int, error) {
	for {
		n, err := t.f.Read(b)
		if errors.Is(err, os.ErrClosed) {
			err = io.EOF
		}
		if n > 0 || err != io.EOF {
			return n, err
		}
		if err := t.waitWrite(); err != nil {
			return 0, err
		}
	}
}

func (t *TFile) waitWrite() error {
	for {
		select {
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return io.EOF
			}
			if filepath.Clean(ev.Name) != t.name {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return io.EOF
			}
			if ev.Op&fsnotify.Write != 0 {
				return nil
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return io.EOF
			}
			return err
		}
	}
}

// Stop ends the tail.  A blocked Read returns whatever is left in the file
// and then io.EOF.
func (t *TFile) Stop() error {
	return t.watcher.Close()
}

func (t *TFile) Close() error {
	t.watcher.Close()
	return t.f.Close()
}
