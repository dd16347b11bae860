// Package broker defines the transport contract shared by the Kafka and
// RabbitMQ clients and the topic pipelines.
//
// A Broker sends raw byte messages to a physical topic and delivers received
// messages to a Handler together with an Acker. The pipelines in
// v1/pipeline sit on top of this contract and never talk to a concrete
// client directly, which lets tests substitute MockBroker.
package broker
