// Package redisserver serves the RESP protocol to clients and replicas.
//
// Each accepted connection runs in its own goroutine:
//
//   - bytes are read into a bounded buffer and appended to the
//     connection's pending frame data
//   - complete frames are decoded one at a time with resp.Next
//   - each command is executed by the Handler and its replies are written
//     before the next command is decoded
//
// A PSYNC reply is followed on the same connection by the snapshot
// transfer, ahead of any reply to a later command.
//
// Arity and format errors are answered with -ERR and the connection
// continues. Framing errors, and pending data larger than MaxFrameSize,
// are answered with -ERR and close the connection.
package redisserver
