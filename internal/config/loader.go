// Package config reads fragment files (YAML or HCL) from a file or
// directory and hot-reloads them.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader reads fragment files and watches them for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Bundle
	onChange []func(*Bundle)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load. path is a
// single fragment file or a directory of them.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	b, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.current = b
	return l, nil
}

// Bundle returns the current (latest) fragments.
func (l *Loader) Bundle() *Bundle {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the fragments reload.
func (l *Loader) OnChange(fn func(*Bundle)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that reloads on changes to fragment
// files. Call the returned stop function to clean up; it waits for the
// goroutine to exit.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isFragment(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
					continue
				}
				if _, err := l.Reload(); err != nil {
					slog.Error("config reload failed, keeping previous fragments", "path", l.path, "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}, nil
}

// Reload forces an immediate re-read of the fragments.
func (l *Loader) Reload() (*Bundle, error) {
	b, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = b
	callbacks := make([]func(*Bundle), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(b)
	}
	return b, nil
}

// Load reads one fragment file, or every *.yaml, *.yml and *.hcl file of a
// directory in lexical order.
func Load(path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read config dir %s: %w", path, err)
		}
		files = files[:0]
		for _, e := range entries {
			if !e.IsDir() && isFragment(e.Name()) {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		slices.Sort(files)
	}

	b := &Bundle{}
	var errs []error
	for _, file := range files {
		f, err := LoadFile(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.Fragments = append(b.Fragments, f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

// LoadFile reads a single fragment, choosing the syntax by extension.
func LoadFile(file string) (*Fragment, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}
	var f *Fragment
	switch strings.ToLower(filepath.Ext(file)) {
	case ".hcl":
		f, err = DecodeHCL(data, file)
	default:
		f, err = DecodeYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", file, err)
	}
	f.Source = file
	return f, nil
}

// DecodeYAML decodes one YAML fragment. Unknown keys are rejected.
func DecodeYAML(data []byte) (*Fragment, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f Fragment
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}

func isFragment(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".hcl":
		return true
	}
	return false
}
