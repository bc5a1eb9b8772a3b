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

// Package telemetry holds the instrument tables shared by the client and
// the bulk helpers.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Histogram describes a float64 histogram to be created by Register.
type Histogram struct {
	Name        string
	Description string
	Unit        string
	P           *metric.Float64Histogram
}

// Counter describes an int64 counter to be created by Register.
type Counter struct {
	Name        string
	Description string
	Unit        string
	P           *metric.Int64Counter
}

// Meter returns a meter from mp, falling back to the global MeterProvider.
func Meter(mp metric.MeterProvider, scope string) metric.Meter {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return mp.Meter(scope)
}

// Register creates every histogram and counter, storing each instrument
// through its P field.
func Register(meter metric.Meter, histograms []Histogram, counters []Counter) error {
	for _, h := range histograms {
		if err := newFloat64Histogram(meter, h); err != nil {
			return err
		}
	}
	for _, c := range counters {
		if err := newInt64Counter(meter, c); err != nil {
			return err
		}
	}
	return nil
}

func newInt64Counter(meter metric.Meter, c Counter) error {
	unit := c.Unit
	if unit == "" {
		unit = "1"
	}
	m, err := meter.Int64Counter(
		c.Name,
		metric.WithUnit(unit),
		metric.WithDescription(c.Description),
	)
	if err != nil {
		return fmt.Errorf(
			"failed creating %s metric: %w", c.Name, err,
		)
	}
	*c.P = m
	return nil
}

func newFloat64Histogram(meter metric.Meter, h Histogram) error {
	m, err := meter.Float64Histogram(
		h.Name,
		metric.WithUnit(h.Unit),
		metric.WithDescription(h.Description),
	)
	if err != nil {
		return fmt.Errorf(
			"failed creating %s metric: %w", h.Name, err,
		)
	}
	*h.P = m
	return nil
}
