// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package notation reads and writes handles as JSON documents. Input
// is JSONC (JSON with comments and trailing commas), so expressions can
// be authored by hand:
//
//	{
//	  // fib(10), fully forced
//	  "encode": {"apply": ["fib", {"u64": 10}]},
//	  "access": "keep",
//	}
//
// Node forms:
//
//	"text"                          accessible blob with the UTF-8 bytes
//	17                              accessible 8-byte integer literal
//	{"blob": "text"}                same as a bare string
//	{"hex": "00ff"}                 accessible blob from hex
//	{"u64": 17}                     same as a bare number
//	{"file": "prog.star"}           accessible blob read from a file
//	{"tree": [...], "tag": true}    accessible tree
//	{"ref": node}                   node made inaccessible
//	{"name": "tree:..."}            reference parsed from a name
//	{"identify": node}              identification thunk
//	{"select": [op, target, ...]}   selection thunk
//	{"apply": [proc, args...]}      application thunk; the combination
//	                                gets the parser's default limits
//	                                unless "limits" is given alongside
//	{"encode": node, "access": a}   Encode of a thunk node; data nodes
//	                                are identified first
//	{"limits": {...}}               limits literal
//
// [Render] writes a value back out in the same vocabulary, reading only
// content that is accessible.
package notation
