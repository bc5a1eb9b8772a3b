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
	ingestPutPipeline    = newEndpoint("ingest.put_pipeline", "if_version", "master_timeout", "timeout")
	ingestGetPipeline    = newEndpoint("ingest.get_pipeline", "master_timeout", "summary")
	ingestDeletePipeline = newEndpoint("ingest.delete_pipeline", "master_timeout", "timeout")
	ingestSimulate       = newEndpoint("ingest.simulate", "verbose")
	ingestProcessorGrok  = newEndpoint("ingest.processor_grok")
)

// IngestClient groups the ingest pipeline endpoints.
type IngestClient struct {
	c *Client
}

// PutPipeline creates or replaces an ingest pipeline.
func (ic *IngestClient) PutPipeline(ctx context.Context, id string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}, arg{"body", body}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, ingestPutPipeline, http.MethodPut, makePath("_ingest", "pipeline", id), body, o)
}

// GetPipeline returns pipelines, or all of them when id is empty.
func (ic *IngestClient) GetPipeline(ctx context.Context, id []string, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, ingestGetPipeline, http.MethodGet, makePath("_ingest", "pipeline", id), nil, o)
}

// DeletePipeline deletes a pipeline.
func (ic *IngestClient) DeletePipeline(ctx context.Context, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"id", id}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, ingestDeletePipeline, http.MethodDelete, makePath("_ingest", "pipeline", id), nil, o)
}

// Simulate runs the documents in body through a pipeline. id is optional
// when body holds the pipeline definition.
func (ic *IngestClient) Simulate(ctx context.Context, body any, id string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"body", body}); err != nil {
		return nil, err
	}
	return ic.c.perform(ctx, ingestSimulate, http.MethodPost, makePath("_ingest", "pipeline", id, "_simulate"), body, o)
}

// ProcessorGrok returns the built-in grok patterns.
func (ic *IngestClient) ProcessorGrok(ctx context.Context, o ...Option) (*Response, error) {
	return ic.c.perform(ctx, ingestProcessorGrok, http.MethodGet, "/_ingest/processor/grok", nil, o)
}
