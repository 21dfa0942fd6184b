// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package schema

import (
	"context"
	"sync"
	"sync/atomic"
)

// Describer builds schema descriptors. Satisfied by *Introspector.
type Describer interface {
	Describe(ctx context.Context) (*Descriptor, error)
}

// Cache holds the current schema snapshot for a connection. Refresh swaps
// in a newly built immutable descriptor; in-flight readers keep whatever
// snapshot they already captured, so refresh never races a running request.
type Cache struct {
	intr Describer
	ptr  atomic.Pointer[Descriptor]

	// buildMu serializes the initial build so concurrent first loads
	// introspect once.
	buildMu sync.Mutex
}

// NewCache creates a cache backed by the given introspector. The first
// Load triggers introspection.
func NewCache(intr Describer) *Cache {
	return &Cache{intr: intr}
}

// Load returns the current snapshot, building it on first use.
func (c *Cache) Load(ctx context.Context) (*Descriptor, error) {
	if d := c.ptr.Load(); d != nil {
		return d, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()
	if d := c.ptr.Load(); d != nil {
		return d, nil
	}

	d, err := c.intr.Describe(ctx)
	if err != nil {
		return nil, err
	}
	c.ptr.Store(d)
	return d, nil
}

// Refresh re-introspects the database and atomically publishes the new
// snapshot. On failure the previous snapshot stays current.
func (c *Cache) Refresh(ctx context.Context) (*Descriptor, error) {
	d, err := c.intr.Describe(ctx)
	if err != nil {
		return nil, err
	}
	c.ptr.Store(d)
	return d, nil
}

// Invalidate drops the current snapshot; the next Load rebuilds it.
func (c *Cache) Invalidate() {
	c.ptr.Store(nil)
}
