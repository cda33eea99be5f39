package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestServe(t *testing.T) {
	tests := []struct {
		name     string
		request  string
		wantCode int
		want     response
	}{
		{
			name:    "literal",
			request: `{"expression":{"type":"integerLiteral","value":"42"}}`,
			want:    response{Result: []string{"42"}},
		},
		{
			name: "document",
			request: `{"expression":{"type":"path","children":[
				{"type":"step","attributes":{"axis":"descendant","test":"b"}}]},
				"document":"<a><b>x</b><b>y</b></a>"}`,
			want: response{Result: []string{"x", "y"}},
		},
		{
			name: "variables",
			request: `{"expression":{"type":"arithmetic","value":"+","children":[
				{"type":"varRef","value":"n"},{"type":"integerLiteral","value":"1"}]},
				"variables":{"n":["41"]}}`,
			want: response{Result: []string{"42"}},
		},
		{
			name:     "evaluation error",
			request:  `{"expression":{"type":"functionCall","value":"fn:nope"}}`,
			wantCode: 1,
			want:     response{Code: "XPST0017"},
		},
		{
			name:     "bad request",
			request:  `{`,
			wantCode: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if code := serve(strings.NewReader(tt.request), &out); code != tt.wantCode {
				t.Errorf("got exit code %d, want %d", code, tt.wantCode)
			}
			var got response
			if err := json.Unmarshal(out.Bytes(), &got); err != nil {
				t.Fatalf("decode response %q: %v", out.String(), err)
			}
			if tt.wantCode != 0 {
				if got.Error == "" {
					t.Error("missing error message")
				}
				if got.Code != tt.want.Code {
					t.Errorf("got code %q, want %q", got.Code, tt.want.Code)
				}
				return
			}
			if strings.Join(got.Result, "|") != strings.Join(tt.want.Result, "|") {
				t.Errorf("got %q, want %q", got.Result, tt.want.Result)
			}
		})
	}
}
