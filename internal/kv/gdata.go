package kv

import (
	"context"
	"fmt"

	"github.com/quasilyte/gdata/v2"
)

// Gdata stores buckets with the platform save-data manager: one object per scope,
// one property per key. Meant for single-machine deployments.
//
// Deleted keys are kept as empty properties; an empty value reads as ErrNotFound.
type Gdata struct{ m *gdata.Manager }

// OpenGdata opens (or creates) the save-data area for appName.
func OpenGdata(appName string) (*Gdata, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open gdata %s: %w", appName, err)
	}
	return &Gdata{m: m}, nil
}

// Bucket returns the bucket for scope.
func (g *Gdata) Bucket(scope string) Bucket {
	return &gdataBucket{m: g.m, scope: scope}
}

type gdataBucket struct {
	m     *gdata.Manager
	scope string
}

func (b *gdataBucket) Get(ctx context.Context, key string) ([]byte, error) {
	if !b.m.ObjectPropExists(b.scope, key) {
		return nil, ErrNotFound
	}
	v, err := b.m.LoadObjectProp(b.scope, key)
	if err != nil {
		return nil, fmt.Errorf("gdata load %s/%s: %w", b.scope, key, err)
	}
	if len(v) == 0 {
		return nil, ErrNotFound
	}
	return v, nil
}

func (b *gdataBucket) Put(ctx context.Context, key string, value []byte) error {
	if err := b.m.SaveObjectProp(b.scope, key, value); err != nil {
		return fmt.Errorf("gdata save %s/%s: %w", b.scope, key, err)
	}
	return nil
}

func (b *gdataBucket) Delete(ctx context.Context, key string) error {
	if !b.m.ObjectPropExists(b.scope, key) {
		return nil
	}
	if err := b.m.SaveObjectProp(b.scope, key, nil); err != nil {
		return fmt.Errorf("gdata delete %s/%s: %w", b.scope, key, err)
	}
	return nil
}
