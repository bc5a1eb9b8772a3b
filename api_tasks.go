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
	tasksList   = newEndpoint("tasks.list", "actions", "detailed", "group_by", "nodes", "parent_task_id", "timeout", "wait_for_completion")
	tasksGet    = newEndpoint("tasks.get", "timeout", "wait_for_completion")
	tasksCancel = newEndpoint("tasks.cancel", "actions", "nodes", "parent_task_id", "wait_for_completion")
)

// TasksClient groups the task management endpoints.
type TasksClient struct {
	c *Client
}

// List returns the tasks running on the cluster.
func (tc *TasksClient) List(ctx context.Context, o ...Option) (*Response, error) {
	return tc.c.perform(ctx, tasksList, http.MethodGet, "/_tasks", nil, o)
}

// Get returns a single task.
func (tc *TasksClient) Get(ctx context.Context, taskID string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"task_id", taskID}); err != nil {
		return nil, err
	}
	return tc.c.perform(ctx, tasksGet, http.MethodGet, makePath("_tasks", taskID), nil, o)
}

// Cancel cancels a task, or every task matching the parameters when
// taskID is empty.
func (tc *TasksClient) Cancel(ctx context.Context, taskID string, o ...Option) (*Response, error) {
	return tc.c.perform(ctx, tasksCancel, http.MethodPost, makePath("_tasks", taskID, "_cancel"), nil, o)
}
