package cluster

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"conhash/pkg/ringerrors"
)

func TestParseNodes(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    []Node
		wantErr bool
	}{
		{name: "nil", input: nil, want: nil},
		{name: "single identifier", input: "n1", want: []Node{{ID: "n1"}}},
		{name: "list", input: []string{"n2", "n1"}, want: []Node{{ID: "n2"}, {ID: "n1"}}},
		{name: "decoded list", input: []any{"n1", "n2"}, want: []Node{{ID: "n1"}, {ID: "n2"}}},
		{
			name:  "weighted mapping sorted by id",
			input: map[string]int{"b": 2, "a": 5},
			want:  []Node{{ID: "a", Weight: 5}, {ID: "b", Weight: 2}},
		},
		{
			name:  "decoded mapping",
			input: map[string]any{"a": float64(3), "b": uint64(1), "c": int64(2)},
			want:  []Node{{ID: "a", Weight: 3}, {ID: "b", Weight: 1}, {ID: "c", Weight: 2}},
		},
		{name: "node value", input: Node{ID: "x", Weight: 4}, want: []Node{{ID: "x", Weight: 4}}},
		{name: "node list", input: []Node{{ID: "x"}}, want: []Node{{ID: "x"}}},
		{name: "zero weight", input: map[string]int{"a": 0}, wantErr: true},
		{name: "fractional weight", input: map[string]any{"a": 1.25}, wantErr: true},
		{name: "huge weight", input: map[string]any{"a": uint64(1) << 40}, wantErr: true},
		{name: "weight above MaxWeight", input: map[string]int{"a": MaxWeight + 1}, wantErr: true},
		{name: "decoded weight above MaxWeight", input: map[string]any{"a": float64(2147483647)}, wantErr: true},
		{name: "node weight above MaxWeight", input: Node{ID: "a", Weight: MaxWeight + 1}, wantErr: true},
		{name: "MaxWeight", input: map[string]int{"a": MaxWeight}, want: []Node{{ID: "a", Weight: MaxWeight}}},
		{name: "string weight", input: map[string]any{"a": "1"}, wantErr: true},
		{name: "non-string list item", input: []any{"a", true}, wantErr: true},
		{name: "empty identifier", input: "", wantErr: true},
		{name: "integer", input: 7, wantErr: true},
		{name: "set of ints", input: []int{1, 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNodes(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ringerrors.ErrInvalidArgument) {
					t.Fatalf("err = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseNodes_FromJSON(t *testing.T) {
	for body, want := range map[string][]Node{
		`{"192.168.0.101:11212": 5, "192.168.0.102:11212": 2}`: {
			{ID: "192.168.0.101:11212", Weight: 5},
			{ID: "192.168.0.102:11212", Weight: 2},
		},
		`["a", "b"]`: {{ID: "a"}, {ID: "b"}},
		`"solo"`:     {{ID: "solo"}},
	} {
		var spec any
		if err := json.Unmarshal([]byte(body), &spec); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
		got, err := ParseNodes(spec)
		if err != nil {
			t.Fatalf("ParseNodes(%s): %v", body, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseNodes(%s) = %v, want %v", body, got, want)
		}
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]any{"a", "b"})
	if err != nil || !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Fatalf("ParseIDs = %v, %v", ids, err)
	}
	for _, bad := range []any{nil, "a", map[string]int{"a": 1}, []any{"a", 2}} {
		if _, err := ParseIDs(bad); !errors.Is(err, ringerrors.ErrInvalidArgument) {
			t.Fatalf("ParseIDs(%#v) err = %v", bad, err)
		}
	}
}
