// Package infra contains technical adapters such as the MQTT depot client,
// metrics sinks and the network catalog stores. These packages depend only
// on the interfaces defined in the core packages.
package infra
