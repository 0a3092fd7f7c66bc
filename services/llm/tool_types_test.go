// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"encoding/json"
	"testing"
)

func TestArgumentsMapDecodesObject(t *testing.T) {
	tc := ToolCallResponse{Arguments: json.RawMessage(`{"query": "all", "n": 2}`)}
	args := tc.ArgumentsMap()
	if args["query"] != "all" || args["n"] != float64(2) {
		t.Errorf("args = %v", args)
	}
}

func TestArgumentsMapDecodesDoubleEncodedString(t *testing.T) {
	// Some providers wrap the arguments object in a JSON string.
	tc := ToolCallResponse{Arguments: json.RawMessage(`"{\"query\": \"chocolate\"}"`)}
	args := tc.ArgumentsMap()
	if args["query"] != "chocolate" {
		t.Errorf("args = %v, want the inner object decoded", args)
	}
}

func TestArgumentsMapEmptyAndInvalid(t *testing.T) {
	for _, raw := range []json.RawMessage{nil, json.RawMessage(``), json.RawMessage(`not json`), json.RawMessage(`[1,2]`)} {
		tc := ToolCallResponse{Arguments: raw}
		args := tc.ArgumentsMap()
		if args == nil || len(args) != 0 {
			t.Errorf("ArgumentsMap(%q) = %v, want an empty map", string(raw), args)
		}
	}
}
