package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/sandrolain/goxq"
	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/tree"
	"github.com/sandrolain/goxq/pkg/types"
)

type request struct {
	Expression json.RawMessage     `json:"expression"`
	Document   string              `json:"document,omitempty"`
	Variables  map[string][]string `json:"variables,omitempty"`
}

type response struct {
	Result []string `json:"result"`
	Error  string   `json:"error,omitempty"`
	Code   string   `json:"code,omitempty"`
}

func writeResponse(w io.Writer, r response) int {
	_ = json.NewEncoder(w).Encode(r)
	if r.Error != "" {
		return 1
	}
	return 0
}

func failure(w io.Writer, err error) int {
	return writeResponse(w, response{Error: err.Error(), Code: string(types.CodeOf(err))})
}

// serve answers one request and returns the process exit code.
func serve(r io.Reader, w io.Writer) int {
	var req request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return writeResponse(w, response{Error: "invalid request JSON: " + err.Error()})
	}

	var in goxq.Input
	facade := tree.XMLFacade{}
	if req.Document != "" {
		doc, err := tree.Parse(strings.NewReader(req.Document))
		if err != nil {
			return failure(w, err)
		}
		in = goxq.Document(doc)
	}
	if len(req.Variables) > 0 {
		in.Variables = make(map[string][]evaluator.Value, len(req.Variables))
		for name, values := range req.Variables {
			items := make([]evaluator.Value, len(values))
			for i, v := range values {
				items[i] = evaluator.NewUntypedAtomic(v)
			}
			in.Variables[name] = items
		}
	}

	values, err := goxq.EvaluateWithContext(context.Background(), req.Expression, in)
	if err != nil {
		return failure(w, err)
	}
	out := make([]string, len(values))
	for i, v := range values {
		if n, ok := v.(evaluator.NodeValue); ok {
			out[i] = tree.StringValue(facade, n.Pointer())
			continue
		}
		out[i] = v.String()
	}
	return writeResponse(w, response{Result: out})
}
