package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailOnOpen     bool
	FailAfterBytes int64 // Fail writes after this many bytes written to this file. -1 to disable.
	FailOnSync     bool
	FailOnClose    bool
	FailOnRename   bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	mu      sync.Mutex
	rules   map[string]Fault // Filename substring -> Fault
	Default Fault            // Fallback

	written int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:      fs,
		rules:   make(map[string]Fault),
		Default: Fault{FailAfterBytes: -1},
	}
}

// Written returns the total bytes written through this file system.
func (f *FaultyFS) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written
}

// AddRule adds a fault injection rule for files whose name contains pattern.
// When several rules match, the longest pattern wins.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

func (f *FaultyFS) faultFor(name string) Fault {
	f.mu.Lock()
	defer f.mu.Unlock()

	fault := f.Default
	best := -1
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) && len(pattern) > best {
			fault, best = rule, len(pattern)
		}
	}
	return fault
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	fault := f.faultFor(name)
	if fault.FailOnOpen {
		return nil, fault.err()
	}

	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Remove(name string) error {
	return f.FS.Remove(name)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault := f.faultFor(newpath); fault.FailOnRename {
		return fault.err()
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	return f.FS.ReadDir(name)
}

type faultyFile struct {
	File
	fs      *FaultyFS
	fault   Fault
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}

	n, err := ff.File.Write(p)
	if n > 0 {
		ff.written += int64(n)
		ff.fs.mu.Lock()
		ff.fs.written += int64(n)
		ff.fs.mu.Unlock()
	}
	return n, err
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.err()
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.err()
	}
	return ff.File.Close()
}
