package classify

import (
	"reflect"
	"testing"

	"github.com/pithecene-io/corpus/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  types.Message
	}{
		{
			name:  "starting with message",
			frame: `{"status":"starting","message":"Uploading book"}`,
			want:  types.Starting{Text: "Uploading book"},
		},
		{
			name:  "starting default text",
			frame: `{"status":"starting"}`,
			want:  types.Starting{Text: DefaultStartingText},
		},
		{
			name:  "processing empty message uses default",
			frame: `{"status":"processing","message":""}`,
			want:  types.Processing{Text: DefaultProcessingText},
		},
		{
			name:  "complete",
			frame: `{"status":"complete","message":"Done"}`,
			want:  types.Complete{Text: "Done"},
		},
		{
			name:  "complete default",
			frame: `{"status":"complete"}`,
			want:  types.Complete{Text: DefaultCompleteText},
		},
		{
			name:  "error",
			frame: `{"status":"error","message":"bad pdf"}`,
			want:  types.Error{Text: "bad pdf"},
		},
		{
			name:  "error default",
			frame: `{"status":"error","message":null}`,
			want:  types.Error{Text: DefaultErrorText},
		},
		{
			name:  "non-string message ignored",
			frame: `{"status":"processing","message":42}`,
			want:  types.Processing{Text: DefaultProcessingText},
		},
		{
			name:  "not json",
			frame: "Extracted 12 pages",
			want:  types.PlainText{Text: "Extracted 12 pages"},
		},
		{
			name:  "truncated json",
			frame: `{"status":"compl`,
			want:  types.PlainText{Text: `{"status":"compl`},
		},
		{
			name:  "unknown status",
			frame: `{"status": "paused", "message": "hold"}`,
			want:  types.PlainText{Text: `{"status":"paused","message":"hold"}`},
		},
		{
			name:  "non-string status",
			frame: `{"status": 3}`,
			want:  types.PlainText{Text: `{"status":3}`},
		},
		{
			name:  "object without known fields",
			frame: `{ "foo": 1 }`,
			want:  types.PlainText{Text: `{"foo":1}`},
		},
		{
			name:  "json number",
			frame: `42`,
			want:  types.PlainText{Text: `42`},
		},
		{
			name:  "json array",
			frame: `[1, 2]`,
			want:  types.PlainText{Text: `[1,2]`},
		},
		{
			name:  "chapters only",
			frame: `{"chapters":[{"id":1,"name":"One","summary":"s1"}]}`,
			want: types.StructuredUpdate{
				Chapters: []types.Chapter{{ID: 1, Name: "One", Summary: "s1"}},
			},
		},
		{
			name:  "characters only",
			frame: `{"characters":[{"name":"Ann","arc":"rises","physical_desc":"tall","psychological_desc":"calm"}]}`,
			want: types.StructuredUpdate{
				Characters: []types.Character{{
					Name:                     "Ann",
					Arc:                      "rises",
					PhysicalDescription:      "tall",
					PsychologicalDescription: "calm",
				}},
			},
		},
		{
			name:  "empty chapters list replaces",
			frame: `{"chapters":[]}`,
			want:  types.StructuredUpdate{Chapters: []types.Chapter{}},
		},
		{
			name:  "malformed chapters",
			frame: `{"chapters": "nope"}`,
			want:  types.PlainText{Text: `{"chapters":"nope"}`},
		},
		{
			name:  "null status falls through to structured",
			frame: `{"status":null,"chapters":[{"id":2,"name":"Two","summary":""}]}`,
			want: types.StructuredUpdate{
				Chapters: []types.Chapter{{ID: 2, Name: "Two"}},
			},
		},
		{
			name:  "status wins over chapters",
			frame: `{"status":"processing","chapters":[]}`,
			want:  types.Processing{Text: DefaultProcessingText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.frame)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q) = %#v, want %#v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestClassify_Total(t *testing.T) {
	frames := []string{"", " ", "{", "}", "null", "true", `""`, `{"status":""}`, "\x00\x01"}
	for _, f := range frames {
		if Classify(f) == nil {
			t.Errorf("Classify(%q) returned nil", f)
		}
	}
}
