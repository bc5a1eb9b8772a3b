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
	mlInfo            = newEndpoint("ml.info")
	mlPutJob          = newEndpoint("ml.put_job")
	mlGetJobs         = newEndpoint("ml.get_jobs", "allow_no_match", "exclude_generated")
	mlGetJobStats     = newEndpoint("ml.get_job_stats", "allow_no_match")
	mlDeleteJob       = newEndpoint("ml.delete_job", "force", "wait_for_completion")
	mlOpenJob         = newEndpoint("ml.open_job")
	mlCloseJob        = newEndpoint("ml.close_job", "allow_no_match", "force", "timeout")
	mlFlushJob        = newEndpoint("ml.flush_job", "advance_time", "calc_interim", "end", "skip_time", "start")
	mlPostData        = newBulkEndpoint("ml.post_data", "reset_end", "reset_start")
	mlGetBuckets      = newEndpoint("ml.get_buckets", "anomaly_score", "desc", "end", "exclude_interim", "expand", "from", "size", "sort", "start")
	mlGetRecords      = newEndpoint("ml.get_records", "desc", "end", "exclude_interim", "from", "record_score", "size", "sort", "start")
	mlPutDatafeed     = newEndpoint("ml.put_datafeed", "allow_no_indices", "expand_wildcards", "ignore_throttled", "ignore_unavailable")
	mlGetDatafeeds    = newEndpoint("ml.get_datafeeds", "allow_no_match", "exclude_generated")
	mlDeleteDatafeed  = newEndpoint("ml.delete_datafeed", "force")
	mlStartDatafeed   = newEndpoint("ml.start_datafeed", "end", "start", "timeout")
	mlStopDatafeed    = newEndpoint("ml.stop_datafeed", "allow_no_match", "force", "timeout")
	mlPreviewDatafeed = newEndpoint("ml.preview_datafeed")
)

// MLClient groups the machine learning anomaly detection endpoints.
type MLClient struct {
	namespace
}

// Info returns machine learning defaults and limits.
func (mc *MLClient) Info(ctx context.Context, o ...Option) (*Response, error) {
	return mc.perform(ctx, mlInfo, http.MethodGet, mc.path("info"), nil, o)
}

// PutJob creates an anomaly detection job.
func (mc *MLClient) PutJob(ctx context.Context, jobID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}, arg{"body", body}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlPutJob, http.MethodPut, mc.path("anomaly_detectors", jobID), body, o)
}

// GetJobs returns jobs, or all of them when jobID is empty.
func (mc *MLClient) GetJobs(ctx context.Context, jobID string, o ...Option) (*Response, error) {
	return mc.perform(ctx, mlGetJobs, http.MethodGet, mc.path("anomaly_detectors", jobID), nil, o)
}

// GetJobStats returns job usage statistics.
func (mc *MLClient) GetJobStats(ctx context.Context, jobID string, o ...Option) (*Response, error) {
	return mc.perform(ctx, mlGetJobStats, http.MethodGet, mc.path("anomaly_detectors", jobID, "_stats"), nil, o)
}

// DeleteJob deletes a job.
func (mc *MLClient) DeleteJob(ctx context.Context, jobID string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlDeleteJob, http.MethodDelete, mc.path("anomaly_detectors", jobID), nil, o)
}

// OpenJob opens a job so it can receive data.
func (mc *MLClient) OpenJob(ctx context.Context, jobID string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlOpenJob, http.MethodPost, mc.path("anomaly_detectors", jobID, "_open"), nil, o)
}

// CloseJob closes a job.
func (mc *MLClient) CloseJob(ctx context.Context, jobID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlCloseJob, http.MethodPost, mc.path("anomaly_detectors", jobID, "_close"), body, o)
}

// FlushJob forces buffered data of a job to be processed.
func (mc *MLClient) FlushJob(ctx context.Context, jobID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlFlushJob, http.MethodPost, mc.path("anomaly_detectors", jobID, "_flush"), body, o)
}

// PostData sends newline delimited data to an open job.
func (mc *MLClient) PostData(ctx context.Context, jobID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}, arg{"body", body}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlPostData, http.MethodPost, mc.path("anomaly_detectors", jobID, "_data"), body, o)
}

// GetBuckets returns job results bucketed by time. timestamp is optional.
func (mc *MLClient) GetBuckets(ctx context.Context, jobID, timestamp string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlGetBuckets, http.MethodPost, mc.path("anomaly_detectors", jobID, "results", "buckets", timestamp), body, o)
}

// GetRecords returns anomaly records of a job.
func (mc *MLClient) GetRecords(ctx context.Context, jobID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"job_id", jobID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlGetRecords, http.MethodPost, mc.path("anomaly_detectors", jobID, "results", "records"), body, o)
}

// PutDatafeed creates a datafeed.
func (mc *MLClient) PutDatafeed(ctx context.Context, datafeedID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"datafeed_id", datafeedID}, arg{"body", body}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlPutDatafeed, http.MethodPut, mc.path("datafeeds", datafeedID), body, o)
}

// GetDatafeeds returns datafeeds, or all of them when datafeedID is empty.
func (mc *MLClient) GetDatafeeds(ctx context.Context, datafeedID string, o ...Option) (*Response, error) {
	return mc.perform(ctx, mlGetDatafeeds, http.MethodGet, mc.path("datafeeds", datafeedID), nil, o)
}

// DeleteDatafeed deletes a datafeed.
func (mc *MLClient) DeleteDatafeed(ctx context.Context, datafeedID string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"datafeed_id", datafeedID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlDeleteDatafeed, http.MethodDelete, mc.path("datafeeds", datafeedID), nil, o)
}

// StartDatafeed starts a datafeed.
func (mc *MLClient) StartDatafeed(ctx context.Context, datafeedID string, body any, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"datafeed_id", datafeedID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlStartDatafeed, http.MethodPost, mc.path("datafeeds", datafeedID, "_start"), body, o)
}

// StopDatafeed stops a datafeed.
func (mc *MLClient) StopDatafeed(ctx context.Context, datafeedID string, o ...Option) (*Response, error) {
	if err := requireArgs(arg{"datafeed_id", datafeedID}); err != nil {
		return nil, err
	}
	return mc.perform(ctx, mlStopDatafeed, http.MethodPost, mc.path("datafeeds", datafeedID, "_stop"), nil, o)
}

// PreviewDatafeed returns a sample of what a datafeed would send to its
// job. datafeedID may be empty when body holds the datafeed and job
// configuration.
func (mc *MLClient) PreviewDatafeed(ctx context.Context, datafeedID string, body any, o ...Option) (*Response, error) {
	if datafeedID == "" && isEmpty(body) {
		return nil, &ArgumentError{Name: "datafeed_id"}
	}
	return mc.perform(ctx, mlPreviewDatafeed, http.MethodGet, mc.path("datafeeds", datafeedID, "_preview"), body, o)
}
