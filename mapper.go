package ptcorm

import (
	"context"
	"reflect"

	"github.com/FxRayHughes/ptcorm/cache"
	"github.com/FxRayHughes/ptcorm/codec"
	"github.com/FxRayHughes/ptcorm/log"
)

// Mapper is the public, object-per-entity façade (C7): the DataMapper
// handle. T is the record type; it must be a struct (or pointer to
// one is rejected — register the struct type itself).
type Mapper[T any] struct {
	ds   *DataSource
	desc *Descriptor
	reg  *codec.Registry

	logger log.Interface

	beans   *cache.Cache[any, *T]
	queries *cache.Cache[string, []*T]
}

// NewMapper materializes a handle for T against ds: it builds (or
// reuses the cached) Entity Descriptor, then runs DDL creation and
// pending migrations before returning (spec §3 "Lifecycle": "Main
// tables ... are created in a single idempotent step at that time.
// Migrations run to completion before the first user operation is
// admitted.").
func NewMapper[T any](ds *DataSource, opts *Options) (*Mapper[T], error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &DescriptorError{Type: "<nil>", Reason: "NewMapper requires a struct type parameter"}
	}

	desc, err := describe(codec.Default, ds.dialect, t, opts)
	if err != nil {
		return nil, err
	}
	if err := ds.setup(context.Background(), desc); err != nil {
		return nil, err
	}
	return &Mapper[T]{ds: ds, desc: desc, reg: codec.Default, logger: ds.logger}, nil
}

// MustNewMapper works like NewMapper but panics on error.
func MustNewMapper[T any](ds *DataSource, opts *Options) *Mapper[T] {
	m, err := NewMapper[T](ds, opts)
	if err != nil {
		panic(err)
	}
	return m
}

// CacheConfig enables the optional two-layer cache on a Mapper (spec
// §4.10); omit calling WithCache to leave a Mapper uncached.
type CacheConfig struct {
	Beans   cache.Config
	Queries cache.Config
}

// WithCache enables bean and query caching on m and returns m for
// chaining.
func (m *Mapper[T]) WithCache(cfg CacheConfig) *Mapper[T] {
	m.beans = cache.New[any, *T](cfg.Beans.MaxSize, cfg.Beans.ExpireAfterWrite)
	m.queries = cache.New[string, []*T](cfg.Queries.MaxSize, cfg.Queries.ExpireAfterWrite)
	return m
}

func (m *Mapper[T]) cached() bool { return m.beans != nil }

// clearQueryCache implements the "clear all" query-cache rule that
// applies to every write operation in spec §4.10's invalidation table.
func (m *Mapper[T]) clearQueryCache() {
	if m.queries != nil {
		m.logger.Debugf("ptcorm: clearing query cache for %s", m.desc.Table)
		m.queries.Clear()
	}
}

func (m *Mapper[T]) clearAll() {
	if m.beans != nil {
		m.logger.Debugf("ptcorm: clearing bean cache for %s", m.desc.Table)
		m.beans.Clear()
	}
	m.clearQueryCache()
}

func (m *Mapper[T]) evictBean(pk any) {
	if m.beans != nil {
		m.logger.Debugf("ptcorm: evicting bean %v from %s", pk, m.desc.Table)
		m.beans.Evict(pk)
	}
}

// Descriptor exposes the built Entity Descriptor, mostly for tests and
// diagnostics.
func (m *Mapper[T]) Descriptor() *Descriptor {
	return m.desc
}
