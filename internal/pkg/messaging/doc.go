// Package messaging publishes domain events to a broker.
//
// Publisher hides the broker; NewFromDriver selects NATS, Kafka, NSQ or
// Google Pub/Sub by name, and "memory" keeps events in process for tests and
// local runs.
package messaging
