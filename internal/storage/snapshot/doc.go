// Package snapshot builds and loads the payload a primary sends during
// full resynchronization.
//
// Two payload formats exist:
//
//	rdb   the canonical empty RDB file. Real Redis replicas accept it;
//	      redikv replicas recognise the "REDIS" magic and discard it.
//	cbor  "RKV1" followed by a CBOR envelope holding every live entry
//	      and a murmur3 checksum of the encoded entries. redikv
//	      replicas verify the checksum and import the entries.
//
// The transfer framing ($<len>\r\n<payload>) is owned by package resp;
// this package only deals with payload bytes.
package snapshot
