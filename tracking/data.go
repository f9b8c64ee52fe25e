// Copyright 2026 The Botanu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracking

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/botanu/botanu-go/pkg/errors"
)

// dbSystems maps common database system spellings to the canonical
// db.system value.
var dbSystems = map[string]string{
	"postgresql":    "postgresql",
	"postgres":      "postgresql",
	"pg":            "postgresql",
	"mysql":         "mysql",
	"mariadb":       "mariadb",
	"mssql":         "mssql",
	"sqlserver":     "mssql",
	"oracle":        "oracle",
	"sqlite":        "sqlite",
	"mongodb":       "mongodb",
	"mongo":         "mongodb",
	"dynamodb":      "dynamodb",
	"cassandra":     "cassandra",
	"couchdb":       "couchdb",
	"firestore":     "firestore",
	"cosmosdb":      "cosmosdb",
	"redis":         "redis",
	"memcached":     "memcached",
	"elasticache":   "elasticache",
	"elasticsearch": "elasticsearch",
	"opensearch":    "opensearch",
	"snowflake":     "snowflake",
	"bigquery":      "bigquery",
	"redshift":      "redshift",
	"databricks":    "databricks",
	"athena":        "athena",
	"synapse":       "synapse",
	"influxdb":      "influxdb",
	"timescaledb":   "timescaledb",
	"neo4j":         "neo4j",
	"neptune":       "neptune",
}

var storageSystems = map[string]string{
	"s3":                   "s3",
	"aws_s3":               "s3",
	"gcs":                  "gcs",
	"google_cloud_storage": "gcs",
	"blob":                 "azure_blob",
	"azure_blob":           "azure_blob",
	"minio":                "minio",
	"ceph":                 "ceph",
	"nfs":                  "nfs",
	"efs":                  "efs",
}

var messagingSystems = map[string]string{
	"sqs":              "sqs",
	"aws_sqs":          "sqs",
	"sns":              "sns",
	"kinesis":          "kinesis",
	"eventbridge":      "eventbridge",
	"pubsub":           "pubsub",
	"google_pubsub":    "pubsub",
	"servicebus":       "servicebus",
	"azure_servicebus": "servicebus",
	"eventhub":         "eventhub",
	"kafka":            "kafka",
	"rabbitmq":         "rabbitmq",
	"nats":             "nats",
	"redis_pubsub":     "redis_pubsub",
	"celery":           "celery",
}

func normalizeSystem(m map[string]string, system string) string {
	lower := strings.ToLower(system)
	if canonical, ok := m[lower]; ok {
		return canonical
	}
	return lower
}

// DBOperation tracks one database operation as a client span with
// db.* semantic convention attributes.
type DBOperation struct {
	system    string
	operation string
	span      trace.Span
	start     time.Time
	endOnce   sync.Once
}

// StartDBOperation opens a client span for a database operation.
// operation is the statement verb (SELECT, INSERT, ...), database the
// logical database name (may be empty).
//
//	ctx, op := tracking.StartDBOperation(ctx, "postgresql", "SELECT", "billing")
//	rows, err := pool.Query(ctx, query)
//	op.SetResult(int64(len(rows)), 0)
//	op.End(err)
func StartDBOperation(ctx context.Context, system, operation, database string) (context.Context, *DBOperation) {
	normalized := normalizeSystem(dbSystems, system)
	op := &DBOperation{
		system:    normalized,
		operation: strings.ToUpper(operation),
		start:     time.Now(),
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", normalized),
		attribute.String("db.operation", op.operation),
		attribute.String(AttrVendor, normalized),
	}
	if database != "" {
		attrs = append(attrs, attribute.String("db.name", database))
	}

	ctx, span := otel.Tracer("botanu.data").Start(ctx,
		"db."+normalized+"."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	op.span = span
	return ctx, op
}

// SetResult records row counts from the statement result. Zero values
// are not recorded.
func (o *DBOperation) SetResult(rowsReturned, rowsAffected int64) *DBOperation {
	if rowsReturned > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.rows_returned", rowsReturned))
	}
	if rowsAffected > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.rows_affected", rowsAffected))
	}
	return o
}

// SetBytes records data volume moved by the operation.
func (o *DBOperation) SetBytes(read, written int64) *DBOperation {
	if read > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.bytes_read", read))
	}
	if written > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.bytes_written", written))
	}
	return o
}

// SetTable records the target table or collection.
func (o *DBOperation) SetTable(table, schema string) *DBOperation {
	o.span.SetAttributes(attribute.String("db.collection.name", table))
	if schema != "" {
		o.span.SetAttributes(attribute.String("db.schema", schema))
	}
	return o
}

// SetWarehouseQuery records warehouse cost drivers: the engine query
// ID and bytes scanned, the unit most warehouses bill on.
func (o *DBOperation) SetWarehouseQuery(queryID string, bytesScanned int64) *DBOperation {
	if queryID != "" {
		o.span.SetAttributes(attribute.String("botanu.warehouse.query_id", queryID))
	}
	if bytesScanned > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.warehouse.bytes_scanned", bytesScanned))
	}
	return o
}

// End closes the span, recording duration and, when err is non-nil,
// failure state. Idempotent.
func (o *DBOperation) End(err error) {
	o.endOnce.Do(func() {
		if err != nil {
			o.span.RecordError(err)
			o.span.SetStatus(codes.Error, err.Error())
			o.span.SetAttributes(attribute.String("botanu.data.error", errors.TypeName(err)))
		}
		o.span.SetAttributes(attribute.Float64("botanu.data.duration_ms",
			float64(time.Since(o.start))/float64(time.Millisecond)))
		o.span.End()
	})
}

// StorageOperation tracks one object storage operation.
type StorageOperation struct {
	system    string
	operation string
	span      trace.Span
	start     time.Time
	endOnce   sync.Once
}

// StartStorageOperation opens a client span for an object storage
// operation (GET, PUT, DELETE, LIST, ...).
func StartStorageOperation(ctx context.Context, system, operation string) (context.Context, *StorageOperation) {
	normalized := normalizeSystem(storageSystems, system)
	op := &StorageOperation{
		system:    normalized,
		operation: strings.ToUpper(operation),
		start:     time.Now(),
	}

	ctx, span := otel.Tracer("botanu.storage").Start(ctx,
		"storage."+normalized+"."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("botanu.storage.system", normalized),
			attribute.String("botanu.storage.operation", op.operation),
			attribute.String(AttrVendor, normalized),
		),
	)
	op.span = span
	return ctx, op
}

// SetBucket records the bucket or container operated on.
func (o *StorageOperation) SetBucket(bucket string) *StorageOperation {
	o.span.SetAttributes(attribute.String("botanu.storage.bucket", bucket))
	return o
}

// SetResult records object count and data volume. Zero values are not
// recorded.
func (o *StorageOperation) SetResult(objects, bytesRead, bytesWritten int64) *StorageOperation {
	if objects > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.objects_count", objects))
	}
	if bytesRead > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.bytes_read", bytesRead))
	}
	if bytesWritten > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.data.bytes_written", bytesWritten))
	}
	return o
}

// End closes the span. Idempotent.
func (o *StorageOperation) End(err error) {
	o.endOnce.Do(func() {
		if err != nil {
			o.span.RecordError(err)
			o.span.SetStatus(codes.Error, err.Error())
			o.span.SetAttributes(attribute.String("botanu.storage.error", errors.TypeName(err)))
		}
		o.span.SetAttributes(attribute.Float64("botanu.storage.duration_ms",
			float64(time.Since(o.start))/float64(time.Millisecond)))
		o.span.End()
	})
}

// MessagingOperation tracks one broker interaction. Publish and send
// get producer spans, everything else consumer spans.
type MessagingOperation struct {
	system      string
	operation   string
	destination string
	span        trace.Span
	start       time.Time
	endOnce     sync.Once
}

// StartMessagingOperation opens a span for a messaging operation
// against the named queue or topic.
func StartMessagingOperation(ctx context.Context, system, operation, destination string) (context.Context, *MessagingOperation) {
	normalized := normalizeSystem(messagingSystems, system)
	lowerOp := strings.ToLower(operation)
	op := &MessagingOperation{
		system:      normalized,
		operation:   lowerOp,
		destination: destination,
		start:       time.Now(),
	}

	kind := trace.SpanKindConsumer
	if lowerOp == "publish" || lowerOp == "send" {
		kind = trace.SpanKindProducer
	}

	ctx, span := otel.Tracer("botanu.messaging").Start(ctx,
		"messaging."+normalized+"."+lowerOp,
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("messaging.system", normalized),
			attribute.String("messaging.operation", lowerOp),
			attribute.String("messaging.destination.name", destination),
			attribute.String(AttrVendor, normalized),
		),
	)
	op.span = span
	return ctx, op
}

// SetResult records message count and payload volume. Zero values are
// not recorded.
func (o *MessagingOperation) SetResult(messages, bytesTransferred int64) *MessagingOperation {
	if messages > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.messaging.message_count", messages))
	}
	if bytesTransferred > 0 {
		o.span.SetAttributes(attribute.Int64("botanu.messaging.bytes_transferred", bytesTransferred))
	}
	return o
}

// End closes the span. Idempotent.
func (o *MessagingOperation) End(err error) {
	o.endOnce.Do(func() {
		if err != nil {
			o.span.RecordError(err)
			o.span.SetStatus(codes.Error, err.Error())
			o.span.SetAttributes(attribute.String("botanu.messaging.error", errors.TypeName(err)))
		}
		o.span.SetAttributes(attribute.Float64("botanu.messaging.duration_ms",
			float64(time.Since(o.start))/float64(time.Millisecond)))
		o.span.End()
	})
}

// SetDataMetrics annotates the current span with data volume
// attributes without opening a dedicated operation span. Zero values
// are not recorded.
func SetDataMetrics(ctx context.Context, rowsReturned, rowsAffected, bytesRead, bytesWritten int64) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if rowsReturned > 0 {
		span.SetAttributes(attribute.Int64("botanu.data.rows_returned", rowsReturned))
	}
	if rowsAffected > 0 {
		span.SetAttributes(attribute.Int64("botanu.data.rows_affected", rowsAffected))
	}
	if bytesRead > 0 {
		span.SetAttributes(attribute.Int64("botanu.data.bytes_read", bytesRead))
	}
	if bytesWritten > 0 {
		span.SetAttributes(attribute.Int64("botanu.data.bytes_written", bytesWritten))
	}
}
