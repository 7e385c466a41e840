// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It is a translation layer: admission windows
// become rate-limit headers, pipeline errors become stable error codes,
// and the gateway's results become response bodies. No generation
// decision is made here.
package api
