// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

// Package module loads extension modules through pluggable backends and
// ties each extension instance to the lifetime of the module it came from.
package module

import (
	"errors"
	"path/filepath"
	"reflect"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
)

// Error codes attached to load failures.
const (
	CodeNoBackend     = "NO_BACKEND"
	CodeOpenFailed    = "MODULE_OPEN_FAILED"
	CodeSymbolMissing = "SYMBOL_MISSING"
	CodeSymbolType    = "SYMBOL_TYPE"
	CodeCreatePanic   = "CREATE_PANIC"
	CodeCreateNil     = "CREATE_NIL"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrClosed is returned by Lookup on a module that has been closed.
	ErrClosed = errors.New("module is closed")
	// ErrUnsupported is returned by backends that cannot run on this platform.
	ErrUnsupported = errors.New("module backend unsupported on this platform")
)

// Module is a loaded unit of code exporting named symbols.
type Module interface {
	// Lookup resolves an exported symbol.
	Lookup(symbol string) (any, error)
	// Close unloads the module. No symbol obtained from it may be used
	// afterwards.
	Close() error
}

// Backend opens modules of one kind.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string
	// Pattern is a glob matched against file base names.
	Pattern() string
	// Open loads the module at path.
	Open(path string) (Module, error)
}

type matcher struct {
	backend Backend
	glob    glob.Glob
}

// Loader opens module files with the first backend whose pattern matches
// and instantiates the extension they export.
type Loader struct {
	backends []matcher
}

// NewLoader creates a loader over backends, in priority order.
func NewLoader(backends ...Backend) (*Loader, error) {
	l := &Loader{}
	for _, b := range backends {
		g, err := glob.Compile(b.Pattern())
		if err != nil {
			return nil, oops.In("module").With("backend", b.Name()).With("pattern", b.Pattern()).Wrap(err)
		}
		l.backends = append(l.backends, matcher{backend: b, glob: g})
	}
	return l, nil
}

// Match returns the backend that handles a file name.
func (l *Loader) Match(name string) (Backend, bool) {
	base := filepath.Base(name)
	for _, m := range l.backends {
		if m.glob.Match(base) {
			return m.backend, true
		}
	}
	return nil, false
}

// Patterns returns the file patterns of all backends.
func (l *Loader) Patterns() []string {
	out := make([]string, 0, len(l.backends))
	for _, m := range l.backends {
		out = append(out, m.backend.Pattern())
	}
	return out
}

// Load opens path, resolves the factory symbols and creates the extension.
// On any failure after the module was opened, the module is closed again
// before Load returns.
func (l *Loader) Load(path string) (*Handle, error) {
	errb := oops.In("module").With("path", path)

	backend, ok := l.Match(path)
	if !ok {
		return nil, errb.Code(CodeNoBackend).Errorf("no backend handles %s", filepath.Base(path))
	}
	errb = errb.With("backend", backend.Name())

	mod, err := backend.Open(path)
	if err != nil {
		return nil, errb.Code(CodeOpenFailed).Wrap(err)
	}

	h, err := instantiate(mod)
	if err != nil {
		if closeErr := mod.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, errb.Wrap(err)
	}
	h.path = path
	h.backend = backend.Name()
	return h, nil
}

func instantiate(mod Module) (*Handle, error) {
	createSym, err := mod.Lookup(extension.CreateSymbol)
	if err != nil {
		return nil, oops.Code(CodeSymbolMissing).With("symbol", extension.CreateSymbol).Wrap(err)
	}
	create, ok := asCreate(createSym)
	if !ok {
		return nil, oops.Code(CodeSymbolType).With("symbol", extension.CreateSymbol).Errorf("unexpected type %T", createSym)
	}

	destroySym, err := mod.Lookup(extension.DestroySymbol)
	if err != nil {
		return nil, oops.Code(CodeSymbolMissing).With("symbol", extension.DestroySymbol).Wrap(err)
	}
	destroy, ok := asDestroy(destroySym)
	if !ok {
		return nil, oops.Code(CodeSymbolType).With("symbol", extension.DestroySymbol).Errorf("unexpected type %T", destroySym)
	}

	ext, err := safeCreate(create)
	if err != nil {
		return nil, err
	}
	if isNil(ext) {
		return nil, oops.Code(CodeCreateNil).Errorf("%s returned nil", extension.CreateSymbol)
	}
	return newHandle(ext, destroy, mod), nil
}

// asCreate accepts a factory function or a pointer to a variable holding
// one, which is how the Go plugin package exposes exported variables.
func asCreate(sym any) (extension.CreateFunc, bool) {
	switch f := sym.(type) {
	case func() extension.Extension:
		return f, f != nil
	case *func() extension.Extension:
		if f == nil || *f == nil {
			return nil, false
		}
		return *f, true
	default:
		return nil, false
	}
}

func asDestroy(sym any) (extension.DestroyFunc, bool) {
	switch f := sym.(type) {
	case func(extension.Extension):
		return f, f != nil
	case *func(extension.Extension):
		if f == nil || *f == nil {
			return nil, false
		}
		return *f, true
	default:
		return nil, false
	}
}

func safeCreate(create extension.CreateFunc) (ext extension.Extension, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code(CodeCreatePanic).Errorf("%s panicked: %v", extension.CreateSymbol, r)
		}
	}()
	return create(), nil
}

func isNil(ext extension.Extension) bool {
	if ext == nil {
		return true
	}
	v := reflect.ValueOf(ext)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
