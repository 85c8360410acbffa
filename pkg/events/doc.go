/*
Package events provides two small pub/sub primitives used to decouple the
privileged engine's internal components.

Broker is an in-memory, non-blocking event bus: snapshot.Manager publishes
EventSnapshotCreated and EventSnapshotDeleted to it when given one through
WithBroker; no component in this module subscribes. Subscriber channels are buffered and a full buffer drops the event rather
than blocking the publisher.

ProgressSink is the bounded channel used for in-flight backup progress
reporting (see pkg/backup); it uses non-blocking try-send so a slow or
absent UI never stalls a transfer.
*/
package events
