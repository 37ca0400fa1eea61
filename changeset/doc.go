/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package changeset defines the change-set wire format exchanged with generative
backends and the strict decoder that turns a model response into a ChangeSet.

A change-set is a JSON array of objects:

	[
	  {"file": "hello.py", "action": "create", "content": "print('hi')"},
	  {"file": "old.txt", "action": "delete"}
	]

Responses are commonly wrapped in a markdown code fence; StripFences removes it
before decoding. Decoding is strict: a non-array payload, a non-object element,
a missing "file" or "action" key, a value of the wrong type or an unknown key is
a parse failure, never a best-effort coercion.

Action values are deliberately not checked here. The applier owns that
validation so that an unknown action surfaces at the stage that would have
executed it.
*/
package changeset
