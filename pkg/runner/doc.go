/*
Package runner holds the input hygiene shared by every frontend that feeds
user text into a run: the terminal simulator, the HTTP API and the MCP tools.

A Sanitizer rejects oversized or invalid UTF-8 replies and strips control
characters. Hosts build it from the server.max_input_size setting; the zero
value uses DefaultMaxInputSize.
*/
package runner
