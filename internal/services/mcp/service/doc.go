// Package service exposes the bridge router over the Model Context Protocol.
//
// Every registered bridge command becomes one MCP tool whose arguments are the
// parameter envelope. The package knows how to run MCP over stdio or
// streamable HTTP and leaves command meaning to the bridge.
package service
