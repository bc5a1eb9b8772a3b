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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"go.elastic.co/fastjson"

	"github.com/elastic/go-esclient"
)

// BulkIndexerConfig holds configuration for BulkIndexer.
type BulkIndexerConfig struct {
	// Client holds the Elasticsearch client.
	Client *esclient.Client

	// MaxDocumentRetries holds the maximum number of times a document is
	// retried within subsequent flushes.
	//
	// If MaxDocumentRetries is zero, documents are never retried.
	MaxDocumentRetries int

	// RetryOnDocumentStatus holds the document level statuses that will
	// trigger a document retry.
	//
	// If RetryOnDocumentStatus is empty, only 429 will be retried.
	RetryOnDocumentStatus []int

	// CompressionLevel holds the gzip compression level, from 0 (gzip.NoCompression)
	// to 9 (gzip.BestCompression). Higher values provide greater compression, at a
	// greater cost of CPU. The special value -1 (gzip.DefaultCompression) selects the
	// default compression level.
	CompressionLevel int

	// Pipeline holds the ingest pipeline ID.
	//
	// If Pipeline is empty, no ingest pipeline will be specified in the Bulk request.
	Pipeline string

	// Refresh holds the refresh parameter of bulk requests, e.g. "wait_for".
	Refresh string
}

// Validate checks the configuration.
func (cfg BulkIndexerConfig) Validate() error {
	if cfg.Client == nil {
		return errors.New("client is nil")
	}
	if cfg.CompressionLevel < -1 || cfg.CompressionLevel > 9 {
		return fmt.Errorf(
			"expected CompressionLevel in range [-1,9], got %d",
			cfg.CompressionLevel,
		)
	}
	return nil
}

// Bulk actions.
const (
	ActionIndex  = "index"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// BulkIndexerItem is a single bulk action.
type BulkIndexerItem struct {
	// Action holds one of the Action constants. It defaults to ActionIndex.
	Action     string
	Index      string
	DocumentID string
	Routing    string
	// Body holds the document source, or the partial document or script for
	// updates. It must be nil for deletes.
	Body io.WriterTo
}

// BulkIndexer buffers bulk actions and sends them in a single _bulk
// request on Flush. Documents failing with a retriable status are kept in
// the buffer and sent again with the next Flush.
//
// BulkIndexer is not safe for concurrent use.
type BulkIndexer struct {
	config       BulkIndexerConfig
	itemsAdded   int
	flushed      int
	uncompressed int
	jsonw        fastjson.Writer
	buf          bytes.Buffer
	spare        bytes.Buffer
	gzipw        *gzip.Writer
	gzbuf        bytes.Buffer

	// offsets holds the start of each item in buf.
	offsets []int
	// retryCounts holds the retry count of items by position.
	retryCounts map[int]int
}

// BulkIndexerResponseStat summarizes a bulk response.
type BulkIndexerResponseStat struct {
	Indexed int64
	// RetriedDocs holds the number of documents kept for the next flush.
	RetriedDocs int64
	// GreatestRetry holds the highest retry count of the retried documents.
	GreatestRetry int
	FailedDocs    []BulkIndexerResponseItem
}

// BulkIndexerResponseItem represents the Elasticsearch response item.
type BulkIndexerResponseItem struct {
	Action     string
	Index      string `json:"_index"`
	DocumentID string `json:"_id"`
	Status     int    `json:"status"`

	Position int

	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

func init() {
	jsoniter.RegisterTypeDecoderFunc("helpers.BulkIndexerResponseStat", func(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
		stat := (*BulkIndexerResponseStat)(ptr)
		iter.ReadObjectCB(func(i *jsoniter.Iterator, s string) bool {
			if s != "items" {
				i.Skip()
				return true
			}
			var idx int
			i.ReadArrayCB(func(i *jsoniter.Iterator) bool {
				return i.ReadMapCB(func(i *jsoniter.Iterator, action string) bool {
					item := BulkIndexerResponseItem{Action: action, Position: idx}
					i.ReadObjectCB(func(i *jsoniter.Iterator, s string) bool {
						switch s {
						case "_index":
							item.Index = i.ReadString()
						case "_id":
							item.DocumentID = i.ReadString()
						case "status":
							item.Status = i.ReadInt()
						case "error":
							i.ReadObjectCB(func(i *jsoniter.Iterator, s string) bool {
								switch s {
								case "type":
									item.Error.Type = i.ReadString()
								case "reason":
									// Drop the field value preview of mapper errors.
									item.Error.Reason, _, _ = strings.Cut(
										i.ReadString(), ". Preview",
									)
								default:
									i.Skip()
								}
								return true
							})
						default:
							i.Skip()
						}
						return true
					})
					idx++
					if item.Error.Type != "" || item.Status >= 300 {
						stat.FailedDocs = append(stat.FailedDocs, item)
					} else {
						stat.Indexed++
					}
					return true
				})
			})
			return true
		})
	})
}

// NewBulkIndexer returns a bulk indexer that issues bulk requests to Elasticsearch.
func NewBulkIndexer(cfg BulkIndexerConfig) (*BulkIndexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &BulkIndexer{
		config:      cfg,
		retryCounts: make(map[int]int),
	}
	// use a len check instead of a nil check because document level retries
	// should be disabled using MaxDocumentRetries instead.
	if len(b.config.RetryOnDocumentStatus) == 0 {
		b.config.RetryOnDocumentStatus = []int{http.StatusTooManyRequests}
	}
	if cfg.CompressionLevel != gzip.NoCompression {
		b.gzipw, _ = gzip.NewWriterLevel(&b.gzbuf, cfg.CompressionLevel)
	}
	return b, nil
}

// Items returns the number of buffered items.
func (b *BulkIndexer) Items() int {
	return b.itemsAdded
}

// Len returns the number of buffered, uncompressed bytes.
func (b *BulkIndexer) Len() int {
	return b.buf.Len()
}

// BytesFlushed returns the number of bytes sent by the last successful
// Flush, after compression.
func (b *BulkIndexer) BytesFlushed() int {
	return b.flushed
}

// BytesUncompressedFlushed returns the number of buffered bytes sent by
// the last successful Flush.
func (b *BulkIndexer) BytesUncompressedFlushed() int {
	return b.uncompressed
}

// Add encodes an item in the buffer.
func (b *BulkIndexer) Add(item BulkIndexerItem) error {
	action := item.Action
	if action == "" {
		action = ActionIndex
	}
	switch action {
	case ActionIndex, ActionCreate, ActionUpdate:
		if item.Body == nil {
			return fmt.Errorf("%s action requires a body", action)
		}
	case ActionDelete:
		if item.Body != nil {
			return errors.New("delete action must not have a body")
		}
	default:
		return fmt.Errorf("unknown bulk action %q", action)
	}
	start := b.buf.Len()
	b.writeMeta(action, item)
	if item.Body != nil {
		if _, err := item.Body.WriteTo(&b.buf); err != nil {
			b.buf.Truncate(start)
			return fmt.Errorf("failed to write bulk indexer item: %w", err)
		}
		b.buf.WriteByte('\n')
	}
	b.offsets = append(b.offsets, start)
	b.itemsAdded++
	return nil
}

// popLast removes the most recently added item from the buffer and
// returns its encoding.
func (b *BulkIndexer) popLast() []byte {
	n := len(b.offsets) - 1
	start := b.offsets[n]
	last := bytes.Clone(b.buf.Bytes()[start:])
	b.buf.Truncate(start)
	b.offsets = b.offsets[:n]
	delete(b.retryCounts, n)
	b.itemsAdded--
	return last
}

// addEncoded appends an item encoded by a previous Add.
func (b *BulkIndexer) addEncoded(item []byte) {
	b.offsets = append(b.offsets, b.buf.Len())
	b.buf.Write(item)
	b.itemsAdded++
}

func (b *BulkIndexer) writeMeta(action string, item BulkIndexerItem) {
	b.jsonw.RawString(`{"`)
	b.jsonw.RawString(action)
	b.jsonw.RawString(`":{`)
	first := true
	field := func(name, value string) {
		if value == "" {
			return
		}
		if !first {
			b.jsonw.RawByte(',')
		}
		first = false
		b.jsonw.RawString(name)
		b.jsonw.String(value)
	}
	field(`"_id":`, item.DocumentID)
	field(`"_index":`, item.Index)
	field(`"routing":`, item.Routing)
	b.jsonw.RawString("}}\n")
	b.buf.Write(b.jsonw.Bytes())
	b.jsonw.Reset()
}

// item returns the encoded action and source of the item at pos.
func (b *BulkIndexer) item(buf []byte, offsets []int, pos int) []byte {
	end := len(buf)
	if pos+1 < len(offsets) {
		end = offsets[pos+1]
	}
	return buf[offsets[pos]:end]
}

// Flush executes a bulk request if there are any items buffered, and clears out the buffer.
func (b *BulkIndexer) Flush(ctx context.Context) (BulkIndexerResponseStat, error) {
	if b.itemsAdded == 0 {
		return BulkIndexerResponseStat{}, nil
	}

	opts := []esclient.Option{
		esclient.WithParam("filter_path", "items.*._index,items.*._id,items.*.status,items.*.error.type,items.*.error.reason"),
	}
	if b.config.Pipeline != "" {
		opts = append(opts, esclient.WithParam("pipeline", b.config.Pipeline))
	}
	if b.config.Refresh != "" {
		opts = append(opts, esclient.WithParam("refresh", b.config.Refresh))
	}
	body := b.buf.Bytes()
	uncompressed := len(body)
	if b.gzipw != nil {
		b.gzbuf.Reset()
		b.gzipw.Reset(&b.gzbuf)
		if _, err := b.gzipw.Write(body); err != nil {
			return BulkIndexerResponseStat{}, fmt.Errorf("failed compressing the request body: %w", err)
		}
		if err := b.gzipw.Close(); err != nil {
			return BulkIndexerResponseStat{}, fmt.Errorf("failed closing the gzip writer: %w", err)
		}
		body = b.gzbuf.Bytes()
		opts = append(opts, esclient.WithHeader("Content-Encoding", "gzip"))
	}

	res, err := b.config.Client.Bulk(ctx, bytes.NewReader(body), "", opts...)

	// Keep the sent items around for document level retries.
	sent, sentOffsets, sentCounts := b.swap()
	if err != nil {
		var respErr *esclient.ResponseError
		if errors.As(err, &respErr) {
			return BulkIndexerResponseStat{}, &FlushError{StatusCode: respErr.StatusCode, Err: err}
		}
		return BulkIndexerResponseStat{}, fmt.Errorf("failed to execute the request: %w", err)
	}
	// Record the number of flushed bytes only when err == nil. The body may
	// not have been sent otherwise.
	b.flushed = len(body)
	b.uncompressed = uncompressed

	var resp BulkIndexerResponseStat
	if err := jsoniter.Unmarshal(res.Body, &resp); err != nil {
		return resp, fmt.Errorf("error decoding bulk response: %w", err)
	}
	if b.config.MaxDocumentRetries == 0 || len(resp.FailedDocs) == 0 {
		return resp, nil
	}

	failed := resp.FailedDocs[:0]
	for _, item := range resp.FailedDocs {
		if !slices.Contains(b.config.RetryOnDocumentStatus, item.Status) || item.Position >= len(sentOffsets) {
			failed = append(failed, item)
			continue
		}
		count := sentCounts[item.Position] + 1
		if count > b.config.MaxDocumentRetries {
			failed = append(failed, item)
			continue
		}
		b.retryCounts[b.itemsAdded] = count
		b.offsets = append(b.offsets, b.buf.Len())
		b.buf.Write(b.item(sent, sentOffsets, item.Position))
		b.itemsAdded++
		resp.RetriedDocs++
		resp.GreatestRetry = max(resp.GreatestRetry, count)
	}
	resp.FailedDocs = failed
	return resp, nil
}

// swap resets the buffer for new items, returning the previous contents.
// The returned slices are valid until the next swap.
func (b *BulkIndexer) swap() ([]byte, []int, map[int]int) {
	b.buf, b.spare = b.spare, b.buf
	b.buf.Reset()
	sentOffsets := b.offsets
	b.offsets = make([]int, 0, len(sentOffsets))
	sentCounts := b.retryCounts
	b.retryCounts = make(map[int]int)
	b.itemsAdded = 0
	return b.spare.Bytes(), sentOffsets, sentCounts
}

// FlushError is returned when a bulk request fails as a whole.
type FlushError struct {
	StatusCode int
	Err        error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("flush failed: %v", e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// TooManyRequests reports whether Elasticsearch rejected the request
// because of back pressure.
func (e *FlushError) TooManyRequests() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
