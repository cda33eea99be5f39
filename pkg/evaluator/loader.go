package evaluator

import (
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/sandrolain/goxq/pkg/tree"
)

// Future is the result of an asynchronous capability call.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewFuture creates an unsettled future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved creates a settled future.
func Resolved[T any](value T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Complete(value, err)
	return f
}

// Complete settles the future. Later calls are ignored.
func (f *Future[T]) Complete(value T, err error) {
	f.once.Do(func() {
		f.value, f.err = value, err
		close(f.done)
	})
}

// Done is closed once the future settles.
func (f *Future[T]) Done() Awaitable { return f.done }

// Settled reports whether the future has completed.
func (f *Future[T]) Settled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome. It must only be called after Done is closed.
func (f *Future[T]) Result() (T, error) {
	return f.value, f.err
}

// ResourceLoader resolves external resources for fn:unparsed-text and
// fn:doc. Documents must be navigable by the evaluation's tree facade.
type ResourceLoader interface {
	LoadText(href string) *Future[string]
	LoadDocument(href string) *Future[tree.Pointer]
}

// FSLoader loads resources from an afero filesystem on background
// goroutines. Documents are parsed once per href so repeated fn:doc calls
// return the same nodes.
type FSLoader struct {
	fs   afero.Fs
	mu   sync.Mutex
	docs map[string]*Future[tree.Pointer]
}

var _ ResourceLoader = (*FSLoader)(nil)

// NewFSLoader creates a loader reading from fs.
func NewFSLoader(fs afero.Fs) *FSLoader {
	return &FSLoader{fs: fs, docs: map[string]*Future[tree.Pointer]{}}
}

func cleanHref(href string) string {
	href = strings.TrimPrefix(href, "file://")
	return path.Clean("/" + href)
}

// LoadText implements ResourceLoader.
func (l *FSLoader) LoadText(href string) *Future[string] {
	f := NewFuture[string]()
	go func() {
		data, err := afero.ReadFile(l.fs, cleanHref(href))
		if err != nil {
			f.Complete("", errors.Wrapf(err, "load %s", href))
			return
		}
		f.Complete(string(data), nil)
	}()
	return f
}

// LoadDocument implements ResourceLoader.
func (l *FSLoader) LoadDocument(href string) *Future[tree.Pointer] {
	key := cleanHref(href)
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.docs[key]; ok {
		return f
	}
	f := NewFuture[tree.Pointer]()
	l.docs[key] = f
	go func() {
		doc, err := tree.ParseFile(l.fs, key)
		if err != nil {
			f.Complete(tree.Pointer{}, err)
			return
		}
		f.Complete(doc.Root(), nil)
	}()
	return f
}
