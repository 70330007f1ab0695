// Package bridge carries commands from an outside caller to the host's
// privileged thread and back.
//
// A Command decodes and validates a request envelope, arms its EventHandler,
// and asks the Dispatcher to run the handler on the host thread, waiting at
// most the command's timeout. The handler always delivers exactly one Result
// per armed invocation, on a channel created for that invocation, so a late
// completion can never be read by a later caller.
package bridge
