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
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/elastic/go-esclient"
)

// ScanConfig holds configuration for Scan.
type ScanConfig struct {
	// Index holds the indices to search. An empty Index searches all
	// indices.
	Index []string

	// Query holds the search body. It is encoded with the client's
	// serializer and must encode to a JSON object.
	//
	// If Query is nil, all documents are returned.
	Query any

	// Scroll holds how long the search context is kept alive between
	// batches.
	//
	// If Scroll is zero, the default of 5 minutes will be used.
	Scroll time.Duration

	// Size holds the number of hits per batch, per shard.
	//
	// If Size is zero, the default of 1000 will be used.
	Size int

	// PreserveOrder keeps the sort order of Query. Otherwise hits are
	// sorted by _doc, which is the most efficient order for scrolling.
	PreserveOrder bool

	// AllowPartialResults continues scrolling when some shards fail.
	// Otherwise Next stops with a *ScanError.
	AllowPartialResults bool

	// Options holds extra options for the initial search request.
	Options []esclient.Option

	// Logger holds an optional Logger.
	Logger *zap.Logger
}

// Hit is a single search hit.
type Hit struct {
	Index  string              `json:"_index"`
	ID     string              `json:"_id"`
	Score  *float64            `json:"_score"`
	Source jsoniter.RawMessage `json:"_source"`
	Sort   []any               `json:"sort,omitempty"`
}

// ScanError is returned when some shards failed during a scroll.
type ScanError struct {
	ScrollID   string
	Successful int
	Skipped    int
	Total      int
}

func (e *ScanError) Error() string {
	return fmt.Sprintf(
		"scroll request %s has only succeeded on %d (+%d skipped) shards out of %d",
		e.ScrollID, e.Successful, e.Skipped, e.Total,
	)
}

type scrollPage struct {
	ScrollID string `json:"_scroll_id"`
	Shards   struct {
		Total      int `json:"total"`
		Successful int `json:"successful"`
		Skipped    int `json:"skipped"`
	} `json:"_shards"`
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

// Scanner iterates over all hits of a query with the scroll API.
//
// Scanner is not safe for concurrent use.
//
//	s := helpers.Scan(ctx, client, helpers.ScanConfig{Index: []string{"logs"}})
//	defer s.Close()
//	for s.Next() {
//		hit := s.Hit()
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type Scanner struct {
	ctx    context.Context
	client *esclient.Client
	config ScanConfig
	logger *zap.Logger

	started  bool
	done     bool
	scrollID string
	hits     []Hit
	pos      int
	current  Hit
	err      error
	// pending holds an error to return once the current hits are consumed.
	pending error
}

// Scan returns a Scanner over all hits of cfg.Query. The first request is
// sent on the first call to Next.
func Scan(ctx context.Context, client *esclient.Client, cfg ScanConfig) *Scanner {
	if cfg.Scroll <= 0 {
		cfg.Scroll = 5 * time.Minute
	}
	if cfg.Size <= 0 {
		cfg.Size = 1000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{ctx: ctx, client: client, config: cfg, logger: logger}
}

// Next advances to the next hit, fetching the next batch when needed. It
// returns false when all hits have been consumed or an error occurred.
func (s *Scanner) Next() bool {
	if s.err != nil || s.done {
		return false
	}
	for s.pos >= len(s.hits) {
		if s.pending != nil {
			s.err, s.pending = s.pending, nil
			return false
		}
		if s.started && s.scrollID == "" {
			s.done = true
			return false
		}
		page, err := s.fetch()
		var scanErr *ScanError
		switch {
		case errors.As(err, &scanErr):
			// Hits of the failed page are still returned.
			s.pending = err
		case err != nil:
			s.err = err
			return false
		}
		s.hits, s.pos = page.Hits.Hits, 0
		if len(s.hits) == 0 && s.pending == nil {
			s.done = true
			return false
		}
	}
	s.current = s.hits[s.pos]
	s.pos++
	return true
}

func (s *Scanner) fetch() (scrollPage, error) {
	var res *esclient.Response
	var err error
	if !s.started {
		s.started = true
		var body map[string]any
		body, err = s.body()
		if err != nil {
			return scrollPage{}, err
		}
		opts := append([]esclient.Option{
			esclient.WithParam("scroll", s.config.Scroll),
			esclient.WithParam("size", s.config.Size),
		}, s.config.Options...)
		res, err = s.client.Search(s.ctx, s.config.Index, body, opts...)
	} else {
		res, err = s.client.Scroll(s.ctx, "", map[string]any{
			"scroll_id": s.scrollID,
			"scroll":    esclient.FormatDuration(s.config.Scroll),
		})
	}
	if err != nil {
		return scrollPage{}, err
	}
	var page scrollPage
	if err := res.Decode(&page); err != nil {
		return scrollPage{}, err
	}
	if page.ScrollID != "" {
		s.scrollID = page.ScrollID
	}
	shards := page.Shards
	if shards.Successful+shards.Skipped < shards.Total {
		s.logger.Warn("scroll request has failed shards",
			zap.String("scroll_id", s.scrollID),
			zap.Int("successful", shards.Successful),
			zap.Int("skipped", shards.Skipped),
			zap.Int("total", shards.Total),
		)
		if !s.config.AllowPartialResults {
			return page, &ScanError{
				ScrollID:   s.scrollID,
				Successful: shards.Successful,
				Skipped:    shards.Skipped,
				Total:      shards.Total,
			}
		}
	}
	return page, nil
}

// body returns the search body as a map, sorted by _doc unless
// PreserveOrder is set.
func (s *Scanner) body() (map[string]any, error) {
	body := make(map[string]any)
	if s.config.Query != nil {
		data, err := s.client.Serializer().Dumps(s.config.Query)
		if err != nil {
			return nil, err
		}
		if err := s.client.Serializer().Loads(data, &body); err != nil {
			return nil, fmt.Errorf("scan query must be a JSON object: %w", err)
		}
	}
	if !s.config.PreserveOrder {
		body["sort"] = "_doc"
	}
	return body, nil
}

// Hit returns the current hit.
func (s *Scanner) Hit() Hit {
	return s.current
}

// Err returns the error that stopped the iteration, if any.
func (s *Scanner) Err() error {
	return s.err
}

// Close clears the scroll context. It is safe to call Close more than once.
func (s *Scanner) Close() error {
	s.done = true
	if s.scrollID == "" {
		return nil
	}
	id := s.scrollID
	s.scrollID = ""
	// The scroll may already be gone when the scan completed.
	_, err := s.client.ClearScroll(context.WithoutCancel(s.ctx), []string{id}, nil,
		esclient.WithIgnore(404),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to clear scroll: %w", err)
	}
	return nil
}
