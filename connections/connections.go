// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package connections holds named esclient.Client instances, created on
// first use from registered configurations.
package connections

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/elastic/go-esclient"
)

// DefaultAlias is the alias used when none is given.
const DefaultAlias = "default"

// ErrUnknownAlias is returned for aliases with neither a client nor a
// configuration registered.
var ErrUnknownAlias = errors.New("unknown connection alias")

// Registry maps aliases to clients. Clients are either added directly or
// created lazily from a configuration on the first Get.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]esclient.Config
	clients map[string]*esclient.Client

	// newClient creates clients from configurations.
	newClient func(esclient.Config) (*esclient.Client, error)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		configs:   make(map[string]esclient.Config),
		clients:   make(map[string]*esclient.Client),
		newClient: esclient.New,
	}
}

// Configure replaces all configurations. Existing clients are kept only
// if their alias is configured again with an identical configuration.
func (r *Registry) Configure(configs map[string]esclient.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for alias := range r.clients {
		old, hadConfig := r.configs[alias]
		cfg, ok := configs[alias]
		if hadConfig && ok && reflect.DeepEqual(old, cfg) {
			continue
		}
		delete(r.clients, alias)
	}
	r.configs = make(map[string]esclient.Config, len(configs))
	for alias, cfg := range configs {
		r.configs[alias] = cfg
	}
}

// Add registers an existing client under alias, replacing any client
// registered before.
func (r *Registry) Add(alias string, client *esclient.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[alias] = client
}

// Create creates a client from cfg, registers it under alias and returns
// it.
func (r *Registry) Create(alias string, cfg esclient.Config) (*esclient.Client, error) {
	client, err := r.newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection %q: %w", alias, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[alias] = cfg
	r.clients[alias] = client
	return client, nil
}

// Get returns the client registered under alias, creating it from the
// alias configuration if needed.
func (r *Registry) Get(alias string) (*esclient.Client, error) {
	if alias == "" {
		alias = DefaultAlias
	}
	r.mu.RLock()
	client, ok := r.clients[alias]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another goroutine may have created it while the lock was released.
	if client, ok := r.clients[alias]; ok {
		return client, nil
	}
	cfg, ok := r.configs[alias]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAlias, alias)
	}
	client, err := r.newClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection %q: %w", alias, err)
	}
	r.clients[alias] = client
	return client, nil
}

// Remove removes the client and configuration registered under alias.
func (r *Registry) Remove(alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, hasConfig := r.configs[alias]
	_, hasClient := r.clients[alias]
	if !hasConfig && !hasClient {
		return fmt.Errorf("%w %q", ErrUnknownAlias, alias)
	}
	delete(r.configs, alias)
	delete(r.clients, alias)
	return nil
}

// Aliases returns the sorted aliases with a client or a configuration.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.configs)+len(r.clients))
	for alias := range r.configs {
		seen[alias] = struct{}{}
	}
	for alias := range r.clients {
		seen[alias] = struct{}{}
	}
	aliases := make([]string, 0, len(seen))
	for alias := range seen {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

// Default is the process wide registry used by the package functions and
// by the dsl package when no client is given.
var Default = NewRegistry()

// Configure calls Default.Configure.
func Configure(configs map[string]esclient.Config) { Default.Configure(configs) }

// Add calls Default.Add.
func Add(alias string, client *esclient.Client) { Default.Add(alias, client) }

// Create calls Default.Create.
func Create(alias string, cfg esclient.Config) (*esclient.Client, error) {
	return Default.Create(alias, cfg)
}

// Get calls Default.Get.
func Get(alias string) (*esclient.Client, error) { return Default.Get(alias) }

// Remove calls Default.Remove.
func Remove(alias string) error { return Default.Remove(alias) }
