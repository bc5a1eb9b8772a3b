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

package esclient

import (
	"context"
	"net/http"
)

var (
	snapshotCreateRepository  = newEndpoint("snapshot.create_repository", "master_timeout", "timeout", "verify")
	snapshotGetRepository     = newEndpoint("snapshot.get_repository", "local", "master_timeout")
	snapshotDeleteRepository  = newEndpoint("snapshot.delete_repository", "master_timeout", "timeout")
	snapshotVerifyRepository  = newEndpoint("snapshot.verify_repository", "master_timeout", "timeout")
	snapshotCleanupRepository = newEndpoint("snapshot.cleanup_repository", "master_timeout", "timeout")
	snapshotCreate            = newEndpoint("snapshot.create", "master_timeout", "wait_for_completion")
	snapshotGet               = newEndpoint("snapshot.get", "ignore_unavailable", "include_repository", "index_details", "master_timeout", "verbose")
	snapshotDelete            = newEndpoint("snapshot.delete", "master_timeout")
	snapshotRestore           = newEndpoint("snapshot.restore", "master_timeout", "wait_for_completion")
	snapshotStatus            = newEndpoint("snapshot.status", "ignore_unavailable", "master_timeout")
)

// SnapshotClient groups the snapshot and restore endpoints.
type SnapshotClient struct {
	c *Client
}

// CreateRepository registers a snapshot repository.
func (sc *SnapshotClient) CreateRepository(ctx context.Context, repository string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}, arg{"body", body}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotCreateRepository, http.MethodPut, makePath("_snapshot", repository), body, o)
}

// GetRepository returns snapshot repositories.
func (sc *SnapshotClient) GetRepository(ctx context.Context, repository []string, o ...Option) (*Response, error) {
	return sc.c.perform(ctx, snapshotGetRepository, http.MethodGet, makePath("_snapshot", repository), nil, o)
}

// DeleteRepository unregisters snapshot repositories.
func (sc *SnapshotClient) DeleteRepository(ctx context.Context, repository []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotDeleteRepository, http.MethodDelete, makePath("_snapshot", repository), nil, o)
}

// VerifyRepository checks that a repository is usable from all nodes.
func (sc *SnapshotClient) VerifyRepository(ctx context.Context, repository string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotVerifyRepository, http.MethodPost, makePath("_snapshot", repository, "_verify"), nil, o)
}

// CleanupRepository removes stale data from a repository.
func (sc *SnapshotClient) CleanupRepository(ctx context.Context, repository string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotCleanupRepository, http.MethodPost, makePath("_snapshot", repository, "_cleanup"), nil, o)
}

// Create takes a snapshot into repository.
func (sc *SnapshotClient) Create(ctx context.Context, repository, snapshot string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}, arg{"snapshot", snapshot}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotCreate, http.MethodPut, makePath("_snapshot", repository, snapshot), body, o)
}

// Get returns information about snapshots.
func (sc *SnapshotClient) Get(ctx context.Context, repository string, snapshot []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}, arg{"snapshot", snapshot}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotGet, http.MethodGet, makePath("_snapshot", repository, snapshot), nil, o)
}

// Delete deletes snapshots.
func (sc *SnapshotClient) Delete(ctx context.Context, repository string, snapshot []string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}, arg{"snapshot", snapshot}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotDelete, http.MethodDelete, makePath("_snapshot", repository, snapshot), nil, o)
}

// Restore restores a snapshot.
func (sc *SnapshotClient) Restore(ctx context.Context, repository, snapshot string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"repository", repository}, arg{"snapshot", snapshot}); err != nil {
		return nil, err
	}
	return sc.c.perform(ctx, snapshotRestore, http.MethodPost, makePath("_snapshot", repository, snapshot, "_restore"), body, o)
}

// Status returns the status of running snapshots, or of the given ones.
func (sc *SnapshotClient) Status(ctx context.Context, repository string, snapshot []string, o ...Option) (*Response, error) {
	return sc.c.perform(ctx, snapshotStatus, http.MethodGet, makePath("_snapshot", repository, snapshot, "_status"), nil, o)
}
