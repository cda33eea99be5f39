// Command goxq-wasi is the WASI (wasip1) entrypoint for evaluating
// expression trees from any host that runs WebAssembly System Interface
// modules.
//
// Protocol: single JSON object on stdin, single JSON object on stdout.
//
//	stdin:  { "expression": <expression tree>, "document": "<xml>",
//	          "variables": { "name": ["value", ...] } }
//	stdout: { "result": ["item", ...] }    on success
//	        { "error": "<message>", "code": "<error code>" }    on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o goxq.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":{"type":"integerLiteral","value":"1"}}' | wasmtime goxq.wasm
package main

import (
	"os"
)

func main() {
	os.Exit(serve(os.Stdin, os.Stdout))
}
