package domain

import "testing"

func TestCheckBodySteps(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLines []int
	}{
		{
			name: "step followed by expectation",
			body: "1. Click button\n**Expected:** Button responds\n",
		},
		{
			name:      "step followed by other text",
			body:      "1. Click button\nSomething else\n",
			wantLines: []int{1},
		},
		{
			name: "no numbered items",
			body: "# Login\n\nSome prose.\n",
		},
		{
			name: "empty body",
			body: "",
		},
		{
			name:      "step on last line",
			body:      "Intro\n2. Submit",
			wantLines: []int{2},
		},
		{
			name:      "every offending step is reported",
			body:      "1. One\nnope\n2. Two\n**Expected:** ok\n3. Three\n\n**Expected:** too late\n",
			wantLines: []int{1, 5},
		},
		{
			name: "indented step and expectation",
			body: "  10. Indented\n    **Expected:** Fine\n",
		},
		{
			name:      "CRLF line endings",
			body:      "1. Click\r\n**Expected:** Clicked\r\n2. Again\r\nnope\r\n",
			wantLines: []int{3},
		},
		{
			name:      "bare CR line endings",
			body:      "1. Click\rnope\r",
			wantLines: []int{1},
		},
		{
			name: "number without text is not a step",
			body: "1.\n2.   \n",
		},
		{
			name: "number without space is not a step",
			body: "1.5 is a version\n",
		},
		{
			name:      "expectation without text does not count",
			body:      "1. Click\n**Expected:**\n",
			wantLines: []int{1},
		},
		{
			name:      "no-break space after the number",
			body:      "1.\u00a0Click button\nnothing\n",
			wantLines: []int{1},
		},
		{
			name: "no-break space after the expectation label",
			body: "1. Click\n**Expected:**\u00a0Responds\n",
		},
		{
			name: "vertical tab and ideographic space indent",
			body: "\u30001. Click\n\v**Expected:** Responds\n",
		},
		{
			name: "byte order mark and line separator count as space",
			body: "\ufeff1.\u2028Click\n**Expected:**\u2003Responds\n",
		},
		{
			name:      "only separators after the label does not count",
			body:      "1. Click\n**Expected:**\u00a0\u2029\n",
			wantLines: []int{1},
		},
		{
			name:      "expectation must be bold",
			body:      "1. Click\nExpected: clicked\n",
			wantLines: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckBodySteps("tc.md", tt.body, BodyStepOptions{})

			if len(got) != len(tt.wantLines) {
				t.Fatalf("CheckBodySteps() returned %d findings, want %d: %v", len(got), len(tt.wantLines), got)
			}
			for i, f := range got {
				if f.Kind != FindingBodyFormat {
					t.Errorf("finding %d Kind = %q, want %q", i, f.Kind, FindingBodyFormat)
				}
				if f.Line != tt.wantLines[i] {
					t.Errorf("finding %d Line = %d, want %d", i, f.Line, tt.wantLines[i])
				}
				if f.Message != msgStepWithoutExpected {
					t.Errorf("finding %d Message = %q", i, f.Message)
				}
			}
		})
	}
}

func TestCheckBodySteps_LineOffset(t *testing.T) {
	got := CheckBodySteps("tc.md", "text\n1. Click\n", BodyStepOptions{LineOffset: 4})

	if len(got) != 1 || got[0].Line != 6 {
		t.Errorf("CheckBodySteps() = %v, want one finding at line 6", got)
	}
}

func TestCheckBodySteps_RequireSteps(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		require     bool
		wantMissing bool
	}{
		{"required and absent", "Just prose\n", true, true},
		{"required and present", "1. Do\n**Expected:** Done\n", true, false},
		{"not required and absent", "Just prose\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckBodySteps("tc.md", tt.body, BodyStepOptions{RequireSteps: tt.require})

			missing := 0
			for _, f := range got {
				if f.Kind == FindingMissingSteps {
					missing++
					if f.Line != 0 {
						t.Errorf("missing steps finding Line = %d, want 0", f.Line)
					}
				}
			}
			if tt.wantMissing && missing != 1 {
				t.Errorf("missing steps findings = %d, want exactly 1", missing)
			}
			if !tt.wantMissing && missing != 0 {
				t.Errorf("missing steps findings = %d, want 0", missing)
			}
		})
	}
}

func TestCheckBodySteps_Deterministic(t *testing.T) {
	body := "1. One\nnope\n2. Two\n"

	first := CheckBodySteps("tc.md", body, BodyStepOptions{})
	second := CheckBodySteps("tc.md", body, BodyStepOptions{})

	if len(first) != len(second) {
		t.Fatalf("runs differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("finding %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
