package service

import (
	"reflect"
	"testing"
)

func TestSplitScript(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "slide-marked lines",
			script: "SLIDE: You could leave life right now.\nSLIDE: Let that determine what you do.\n",
			want:   []string{"You could leave life right now.", "Let that determine what you do."},
		},
		{
			name:   "ignores unmarked lines when markers exist",
			script: "Here is your script:\nSLIDE: Amor fati.\nHope you like it!",
			want:   []string{"Amor fati."},
		},
		{
			name:   "paragraph fallback",
			script: "First thought.\n\nSecond thought.\n\n",
			want:   []string{"First thought.", "Second thought."},
		},
		{
			name:   "blank script",
			script: "   \n\n  ",
			want:   nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitScript(tc.script)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SplitScript() = %#v, want %#v", got, tc.want)
			}
		})
	}
}
