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

package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.elastic.co/apm/module/apmzap/v2"
	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elastic/go-esclient"
)

var (
	// ErrClosed is returned from methods of closed Appenders.
	ErrClosed = errors.New("appender closed")

	errMissingIndex = errors.New("missing index name")
	errMissingBody  = errors.New("missing document body")
)

// AppenderConfig holds configuration for Appender.
type AppenderConfig struct {
	// Logger holds an optional Logger to use for logging indexing requests.
	//
	// All Elasticsearch errors will be logged at error level, so in cases
	// where the indexer is used for high throughput indexing, it is
	// recommended that a rate-limited logger is used.
	//
	// If Logger is nil, logging will be disabled.
	Logger *zap.Logger

	// Tracer holds an optional apm.Tracer to use for tracing bulk requests
	// to Elasticsearch. Each bulk request is traced as a transaction.
	//
	// If Tracer is nil, requests will not be traced with APM.
	Tracer *apm.Tracer

	// TracerProvider holds an optional OTel TracerProvider. Each bulk
	// request is traced as a span linked to the spans documents were added in.
	TracerProvider trace.TracerProvider

	// MeterProvider holds the OTel MeterProvider to be used to create and
	// record appender metrics.
	//
	// If unset, the global OTel MeterProvider will be used.
	MeterProvider metric.MeterProvider

	// MetricAttributes holds any extra attributes to set in the recorded
	// metrics.
	MetricAttributes attribute.Set

	// MaxRequests holds the maximum number of bulk index requests to execute concurrently.
	// The maximum memory usage of Appender is thus approximately MaxRequests*FlushBytes.
	//
	// If MaxRequests is less than or equal to zero, the default of 10 will be used.
	MaxRequests int

	// DocumentBufferSize sets the number of documents that can be buffered before
	// they are stored in the active indexer buffer.
	//
	// If DocumentBufferSize is zero, the default 1024 will be used.
	DocumentBufferSize int

	// FlushBytes holds the flush threshold in bytes. If CompressionLevel is
	// set, the threshold applies to the uncompressed buffer.
	//
	// If FlushBytes is zero, the default of 1MB will be used.
	FlushBytes int

	// FlushInterval holds the flush threshold as a duration.
	//
	// If FlushInterval is zero, the default of 30 seconds will be used.
	FlushInterval time.Duration

	// FlushTimeout holds the flush timeout as a duration.
	//
	// If FlushTimeout is zero, no timeout will be used.
	FlushTimeout time.Duration

	// CompressionLevel, MaxDocumentRetries, RetryOnDocumentStatus and
	// Pipeline configure the bulk indexers, see BulkIndexerConfig.
	CompressionLevel      int
	MaxDocumentRetries    int
	RetryOnDocumentStatus []int
	Pipeline              string
}

func (cfg AppenderConfig) withDefaults() AppenderConfig {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 10
	}
	if cfg.DocumentBufferSize <= 0 {
		cfg.DocumentBufferSize = 1024
	}
	if cfg.FlushBytes <= 0 {
		cfg.FlushBytes = 1 * 1024 * 1024
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	return cfg
}

// Appender provides an append-only API for bulk indexing documents into
// Elasticsearch.
//
// Appender buffers documents in their JSON encoding until either the
// accumulated buffer reaches FlushBytes, or FlushInterval elapses. Up to
// MaxRequests bulk requests may be in flight concurrently, while the next
// one is being filled.
type Appender struct {
	docsAdded       atomic.Int64
	docsActive      atomic.Int64
	docsFailed      atomic.Int64
	docsIndexed     atomic.Int64
	tooManyRequests atomic.Int64
	bulkRequests    atomic.Int64

	config                AppenderConfig
	client                *esclient.Client
	available             chan *batch
	bulkItems             chan queuedItem
	errgroup              errgroup.Group
	errgroupContext       context.Context
	cancelErrgroupContext context.CancelCauseFunc
	metrics               metrics
	mu                    sync.Mutex
	closed                chan struct{}

	// tracer is an OTel tracer, and should not be confused with
	// config.Tracer which is an Elastic APM Tracer.
	tracer trace.Tracer
}

// batch is a bulk indexer with the trace contexts of its documents.
type batch struct {
	indexer *BulkIndexer
	links   []traceLink
}

type queuedItem struct {
	BulkIndexerItem
	link *traceLink
}

// AppenderStats holds bulk indexing statistics.
type AppenderStats struct {
	// Added holds the number of items added to the appender.
	Added int64

	// Active holds the active number of items waiting in the appender's
	// queue, or being indexed.
	Active int64

	// BulkRequests holds the number of bulk requests completed.
	BulkRequests int64

	// Failed holds the number of items that failed to be indexed.
	Failed int64

	// Indexed holds the number of items successfully indexed.
	Indexed int64

	// TooManyRequests holds the number of items that failed with 429.
	TooManyRequests int64

	// AvailableBulkRequests holds the number of bulk indexers not in use.
	AvailableBulkRequests int64
}

// NewAppender returns a new Appender that indexes documents into
// Elasticsearch using client.
func NewAppender(client *esclient.Client, cfg AppenderConfig) (*Appender, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}
	cfg = cfg.withDefaults()
	ms, err := newMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, err
	}
	a := &Appender{
		config:    cfg,
		client:    client,
		available: make(chan *batch, cfg.MaxRequests),
		bulkItems: make(chan queuedItem, cfg.DocumentBufferSize),
		closed:    make(chan struct{}),
		metrics:   ms,
	}
	for i := 0; i < cfg.MaxRequests; i++ {
		bi, err := NewBulkIndexer(BulkIndexerConfig{
			Client:                client,
			MaxDocumentRetries:    cfg.MaxDocumentRetries,
			RetryOnDocumentStatus: cfg.RetryOnDocumentStatus,
			CompressionLevel:      cfg.CompressionLevel,
			Pipeline:              cfg.Pipeline,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating bulk indexer: %w", err)
		}
		a.available <- &batch{indexer: bi}
	}
	if cfg.TracerProvider != nil {
		a.tracer = cfg.TracerProvider.Tracer(instrumentationScope)
	}
	// The errgroup context is not derived with errgroup.WithContext: one
	// flush failure must not cancel the others. It is cancelled when the
	// context passed to Close is done.
	a.errgroupContext, a.cancelErrgroupContext = context.WithCancelCause(
		context.Background(),
	)
	a.errgroup.Go(func() error {
		a.runActiveIndexer()
		return nil
	})
	return a, nil
}

// Close closes the appender, first flushing any queued items.
//
// Close returns an error if any flush attempts during the appender's
// lifetime returned an error. If ctx is cancelled, Close returns and
// any ongoing flush attempts are cancelled.
func (a *Appender) Close(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.closed:
		return a.errgroup.Wait()
	default:
	}
	close(a.closed)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer a.cancelErrgroupContext(errors.New("appender closed"))
		<-ctx.Done()
	}()

	if err := a.errgroup.Wait(); err != nil {
		return err
	}
	// All batches are back in available; flush documents kept for retries.
	var errs []error
	for i := 0; i < cap(a.available); i++ {
		b := <-a.available
		if err := a.flush(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("indexer failed: %w", err))
		}
		a.available <- b
	}
	if len(errs) != 0 {
		return fmt.Errorf("failed to flush events on close: %w", errors.Join(errs...))
	}
	return nil
}

// Stats returns the bulk indexing stats.
func (a *Appender) Stats() AppenderStats {
	return AppenderStats{
		Added:                 a.docsAdded.Load(),
		Active:                a.docsActive.Load(),
		BulkRequests:          a.bulkRequests.Load(),
		Failed:                a.docsFailed.Load(),
		Indexed:               a.docsIndexed.Load(),
		TooManyRequests:       a.tooManyRequests.Load(),
		AvailableBulkRequests: int64(len(a.available)),
	}
}

// Add enqueues item for indexing.
//
// The item's Body will be accessed after Add returns, and must remain
// accessible until its WriteTo method returns.
//
// If ctx carries an OTel or APM span, the span flushing the item is
// linked to it.
func (a *Appender) Add(ctx context.Context, item BulkIndexerItem) error {
	if item.Index == "" {
		return errMissingIndex
	}
	if item.Body == nil && item.Action != ActionDelete {
		return errMissingBody
	}
	queued := queuedItem{BulkIndexerItem: item, link: traceLinkFromContext(ctx)}
	attrs := metric.WithAttributeSet(a.config.MetricAttributes)
	if len(a.bulkItems) == cap(a.bulkItems) {
		a.metrics.blockedAdd.Add(context.Background(), 1, attrs)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.closed:
		return ErrClosed
	case a.bulkItems <- queued:
	}
	a.docsAdded.Add(1)
	a.docsActive.Add(1)
	a.metrics.docsAdded.Add(context.Background(), 1, attrs)
	return nil
}

func (a *Appender) flush(ctx context.Context, b *batch) error {
	n := b.indexer.Items()
	if n == 0 {
		return nil
	}
	defer a.bulkRequests.Add(1)
	defer a.metrics.bulkRequests.Add(context.Background(), 1, metric.WithAttributeSet(a.config.MetricAttributes))

	logger := a.config.Logger
	var tx *apm.Transaction
	if a.config.Tracer != nil && a.config.Tracer.Recording() {
		links := make([]apm.SpanLink, len(b.links))
		for i, l := range b.links {
			links[i] = l.apm()
		}
		tx = a.config.Tracer.StartTransactionOptions("bulk.flush", "output", apm.TransactionOptions{
			Links: links,
		})
		tx.Context.SetLabel("documents", n)
		defer tx.End()
		ctx = apm.ContextWithTransaction(ctx, tx)
		logger = logger.With(apmzap.TraceContext(ctx)...)
	}
	var span trace.Span
	if a.tracer != nil {
		links := make([]trace.Link, len(b.links))
		for i, l := range b.links {
			links[i] = l.otel()
		}
		ctx, span = a.tracer.Start(ctx, "bulk.flush",
			trace.WithLinks(links...),
			trace.WithAttributes(attribute.Int("documents", n)),
		)
		defer span.End()
		// Add trace IDs to logger, to associate any per-item errors
		// below with the trace.
		logger = logger.With(
			zap.String("traceId", span.SpanContext().TraceID().String()),
			zap.String("spanId", span.SpanContext().SpanID().String()),
		)
	}

	if a.config.FlushTimeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.FlushTimeout)
		defer cancel()
	}
	resp, err := b.indexer.Flush(ctx)
	b.links = b.links[:0]

	attrs := metric.WithAttributeSet(a.config.MetricAttributes)
	if err != nil {
		a.docsActive.Add(-int64(n))
		a.docsFailed.Add(int64(n))
		logger.Error("bulk indexing request failed", zap.Error(err))
		if tx != nil {
			tx.Outcome = "failure"
			if e := apm.CaptureError(ctx, err); e != nil {
				e.Send()
			}
		}
		if span != nil && span.IsRecording() {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bulk indexing request failed")
		}
		status := "Failed"
		var flushErr *FlushError
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			status = "Timeout"
		case errors.As(err, &flushErr) && flushErr.TooManyRequests():
			a.tooManyRequests.Add(int64(n))
			status = "TooMany"
		case errors.As(err, &flushErr) && flushErr.StatusCode >= 500:
			status = "FailedServer"
		case errors.As(err, &flushErr):
			status = "FailedClient"
		}
		statusAttrs := []attribute.KeyValue{attribute.String("status", status)}
		if flushErr != nil {
			statusAttrs = append(statusAttrs, semconv.HTTPResponseStatusCode(flushErr.StatusCode))
		}
		a.metrics.docsIndexed.Add(context.Background(), int64(n), attrs, metric.WithAttributes(statusAttrs...))
		return err
	}
	if flushed := b.indexer.BytesFlushed(); flushed > 0 {
		a.metrics.bytesTotal.Add(context.Background(), int64(flushed), attrs)
	}
	if flushed := b.indexer.BytesUncompressedFlushed(); flushed > 0 {
		a.metrics.bytesUncompressedTotal.Add(context.Background(), int64(flushed), attrs)
	}

	var tooManyRequests, clientFailed, serverFailed int64
	failedCount := make(map[BulkIndexerResponseItem]int, len(resp.FailedDocs))
	for _, info := range resp.FailedDocs {
		switch {
		case info.Status == http.StatusTooManyRequests:
			tooManyRequests++
		case info.Status >= 500:
			serverFailed++
		default:
			clientFailed++
		}
		// Reset the position so that items can be counted by error.
		info.Position = 0
		failedCount[info]++
		if span != nil && span.IsRecording() {
			e := errors.New(info.Error.Reason)
			span.RecordError(e)
			span.SetStatus(codes.Error, e.Error())
		}
	}
	for key, count := range failedCount {
		logger.Error(fmt.Sprintf("failed to index documents in '%s' (%s): %s",
			key.Index, key.Error.Type, key.Error.Reason,
		), zap.Int("documents", count))
	}
	docsFailed := int64(len(resp.FailedDocs))
	a.docsActive.Add(-(resp.Indexed + docsFailed))
	a.docsIndexed.Add(resp.Indexed)
	a.docsFailed.Add(docsFailed)
	a.tooManyRequests.Add(tooManyRequests)
	if resp.RetriedDocs > 0 {
		a.metrics.docsRetried.Add(context.Background(), resp.RetriedDocs, attrs,
			metric.WithAttributes(attribute.Int("greatest_retry", resp.GreatestRetry)),
		)
	}
	for status, count := range map[string]int64{
		"Success":      resp.Indexed,
		"TooMany":      tooManyRequests,
		"FailedClient": clientFailed,
		"FailedServer": serverFailed,
	} {
		if count > 0 {
			a.metrics.docsIndexed.Add(context.Background(), count, attrs,
				metric.WithAttributes(attribute.String("status", status)),
			)
		}
	}
	logger.Debug(
		"bulk request completed",
		zap.Int64("docs_indexed", resp.Indexed),
		zap.Int64("docs_failed", docsFailed),
		zap.Int64("docs_rate_limited", tooManyRequests),
		zap.Int64("docs_retried", resp.RetriedDocs),
	)
	if tx != nil {
		tx.Outcome = "success"
	}
	if span != nil && span.IsRecording() && docsFailed == 0 {
		span.SetStatus(codes.Ok, "")
	}
	return nil
}

// runActiveIndexer pulls items from the bulkItems channel into the active
// batch, handing full or idle batches to flush goroutines.
func (a *Appender) runActiveIndexer() {
	var closed bool
	var active *batch
	var firstDocTS time.Time
	flushTimer := time.NewTimer(a.config.FlushInterval)
	if !flushTimer.Stop() {
		<-flushTimer.C
	}
	handleBulkItem := func(item queuedItem) bool {
		if active == nil {
			// Return early when the Close context expires before a batch
			// becomes available.
			select {
			case <-a.errgroupContext.Done():
				a.docsActive.Add(-1)
				a.config.Logger.Warn("failed to get an available bulk indexer",
					zap.Error(context.Cause(a.errgroupContext)),
				)
				return false
			case active = <-a.available:
			}
			firstDocTS = time.Now()
			flushTimer.Reset(a.config.FlushInterval)
		}
		if err := active.indexer.Add(item.BulkIndexerItem); err != nil {
			a.docsActive.Add(-1)
			a.docsFailed.Add(1)
			a.config.Logger.Error("failed to add item to bulk indexer", zap.Error(err))
			return true
		}
		if item.link != nil {
			active.links = append(active.links, *item.link)
		}
		return true
	}
	for !closed {
		select {
		case <-a.closed:
			// Consume whatever bulk items have been buffered,
			// and then flush a last time below.
			for len(a.bulkItems) > 0 {
				handleBulkItem(<-a.bulkItems)
			}
			closed = true
		case <-flushTimer.C:
		case item := <-a.bulkItems:
			if !handleBulkItem(item) || active.indexer.Len() < a.config.FlushBytes {
				continue
			}
			if !flushTimer.Stop() {
				<-flushTimer.C
			}
		}
		if active == nil {
			continue
		}
		b := active
		active = nil
		attrs := metric.WithAttributeSet(a.config.MetricAttributes)
		a.metrics.bufferDuration.Record(context.Background(),
			time.Since(firstDocTS).Seconds(), attrs,
		)
		a.errgroup.Go(func() error {
			start := time.Now()
			err := a.flush(a.errgroupContext, b)
			a.metrics.flushDuration.Record(context.Background(),
				time.Since(start).Seconds(), attrs,
			)
			a.available <- b
			return err
		})
	}
}
