// Package notify defines the outbound notification capability consumed by
// the reminder dispatcher and summary aggregator. The subsystem only selects
// structured payload fields; message rendering and transport (email, push)
// are the responsibility of the injected Notifier implementation.
package notify
