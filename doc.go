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

// Package esclient provides a low level Elasticsearch REST client.
//
// Every REST endpoint is exposed as a single method, grouped by namespace
// (Indices, Cluster, Cat, ...). Methods validate their required arguments,
// build the request path and query string, and send the request through a
// Transport, by default an elastictransport client which takes care of node
// selection and retries. Responses with a status code outside of the 2xx
// range are returned as *ResponseError.
//
// The dsl package builds queries and searches on top of this client, and
// the helpers package provides bulk indexing, scrolling and reindexing.
package esclient
