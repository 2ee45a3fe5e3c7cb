package pool

// Pool is a typed wrapper around sync.Pool. Values implementing Resettable
// are reset on Put so the next Get sees a clean value.
//
//	bufs, err := pool.NewLitePool(func() *Scratch { return &Scratch{} })
//	s := bufs.Get()
//	defer bufs.Put(s)

import (
	"errors"
	"reflect"
	"sync"
)

var (
	ErrNilConstructor = errors.New("litepool: constructor must not be nil")
	ErrNilValue       = errors.New("litepool: constructor returned nil")
)

type Resettable interface {
	Reset()
}

type Pool[T any] struct {
	pool sync.Pool
}

func NewLitePool[T any](newFn func() T) (*Pool[T], error) {
	if newFn == nil {
		return nil, ErrNilConstructor
	}
	if isNil(newFn()) {
		return nil, ErrNilValue
	}

	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}, nil
}

// isNil also catches typed nils, which compare non-nil once boxed in any
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (p *Pool[T]) Get() T {
	//nolint:forcetypeassert // New is validated in NewLitePool
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if r, ok := any(v).(Resettable); ok {
		r.Reset()
	}
	p.pool.Put(v)
}
