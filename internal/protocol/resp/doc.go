// Package resp implements the RESP2 subset spoken by redikv.
//
// Requests are arrays of bulk strings ("*<n>\r\n" followed by n
// "$<len>\r\n<bytes>\r\n" pairs). Decode turns a buffer of complete frames
// into typed Commands; Next does the same one frame at a time for callers
// that stream bytes off a socket. Encode renders typed Responses.
//
// Decoded commands borrow from the input buffer. Callers that keep a
// command past the lifetime of that buffer must copy the fields they need.
package resp
