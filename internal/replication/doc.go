// Package replication implements the full-resync bootstrap between a
// primary and a replica.
//
// Replica side (Client), run once at startup on its own connection:
//
//  1. PING                               expect +PONG
//  2. REPLCONF listening-port <port>     expect +OK
//  3. REPLCONF capa psync2               expect +OK
//  4. PSYNC ? -1                         expect +FULLRESYNC <replid> <offset>
//  5. snapshot transfer                  $<len>\r\n<payload>
//
// Any failure aborts replication only; the node keeps serving clients.
//
// Primary side (Responder), called by the connection dispatcher: REPLCONF
// is acknowledged with +OK and PSYNC is answered with +FULLRESYNC followed
// by the snapshot transfer on the same connection.
//
// Commands written to the primary after the snapshot are not propagated to
// attached replicas.
package replication
