// Package infra contains technical adapters: the zerolog logger, metrics
// sinks and the MQTT trajectory publisher. These packages depend only on
// the interfaces and types defined in the core packages.
package infra
