// Package watcher installs filesystem watches and runs the event loop that
// feeds accepted events to an output sink until a stop condition is met.
//
// A run is single-goroutine: the Watch Set, the filter and the sink are
// only touched from the goroutine calling Run. The notification source's
// reader goroutine communicates with it over channels.
package watcher
