package markets

import "testing"

func TestValidateSelection(t *testing.T) {
	valid := []string{
		"1/1", "1/X", "2/2",
		"H1:0-1", "H2:2+",
		"H1:1+&FT:2+",
		"1&2-3",
		"1|3+",
		"2:1", "0:0", "10:2",
		"T0", "T3",
		"0-2", "3+",
		"GG", "NG", "GG&3+",
		"H", "A", "X",
		"!1/1",
		"1/1|X/X",
		"H1:GG",
	}
	for _, sel := range valid {
		if err := ValidateSelection(sel); err != nil {
			t.Errorf("ValidateSelection(%q) = %v, want nil", sel, err)
		}
	}

	invalid := []string{
		"",
		"1-1",    // HT/FT must use "/"
		"3-1",    // ranges must increase
		"1 / 1",  // whitespace
		"H3:1",   // no third half
		"Q",      // unknown token
		"T",      // exact count without digits
		"1//2",   // empty middle token
		"&1",     // empty part
		"1|",     // empty alternative
		"GGG",    // not a token
		"1:X",    // score needs digits
		"FT:",    // prefix without token
		"!!1",    // double negation is not a token
		"-1",     // bare negative number
		"Tim1",   // localized labels must be folded before encoding
		"NE 1/1", // localized negation
	}
	for _, sel := range invalid {
		if err := ValidateSelection(sel); err == nil {
			t.Errorf("ValidateSelection(%q) = nil, want error", sel)
		}
	}
}

func TestSelectionBuilders(t *testing.T) {
	tests := []struct {
		got      string
		expected string
	}{
		{HTFT("1", "X"), "1/X"},
		{Score(2, 1), "2:1"},
		{ExactGoals(0), "T0"},
		{Half(1, "2+"), "H1:2+"},
		{Half(2, "GG"), "H2:GG"},
		{FullTime("2+"), "FT:2+"},
		{And("H1:1+", "FT:2+"), "H1:1+&FT:2+"},
		{Or("1", "3+"), "1|3+"},
		{Negate("1/1"), "!1/1"},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("builder output %q, want %q", tt.got, tt.expected)
		}
		if err := ValidateSelection(tt.got); err != nil {
			t.Errorf("builder output %q does not validate: %v", tt.got, err)
		}
	}
}

func TestIsCountToken(t *testing.T) {
	cases := []struct {
		sel  string
		want bool
	}{
		{"T0", true},
		{"0-2", true},
		{"3+", true},
		{"3", false},
		{"GG", false},
		{"1/1", false},
		{"H1:2+", false},
	}
	for _, tc := range cases {
		if got := IsCountToken(tc.sel); got != tc.want {
			t.Errorf("IsCountToken(%q) = %v, want %v", tc.sel, got, tc.want)
		}
	}
}

func TestNormalizeHTFT(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1-1", "1/1"},
		{"1-X", "1/X"},
		{"X-2", "X/2"},
		{"1/1", "1/1"},
		{"2/X", "2/X"},
		{"0-2", "0-2"}, // goal range, not HT/FT
		{"GG", "GG"},
	}
	for _, tt := range tests {
		if got := NormalizeHTFT(tt.input); got != tt.expected {
			t.Errorf("NormalizeHTFT(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestExpandHTFTDouble(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1X/1X", "1/1|1/X|X/1|X/X"},
		{"1X/12", "1/1|1/2|X/1|X/2"},
		{"X2/2", "X/2|2/2"},
		{"1/X2", "1/X|1/2"},
		{"1/1", "1/1"},
		{"1-1", "1/1"},
		{"2:1", "2:1"}, // correct score, not HT/FT
		{"GG", "GG"},
	}
	for _, tt := range tests {
		got := ExpandHTFTDouble(tt.input)
		if got != tt.expected {
			t.Errorf("ExpandHTFTDouble(%q) = %q, want %q", tt.input, got, tt.expected)
		}
		if err := ValidateSelection(got); err != nil {
			t.Errorf("ExpandHTFTDouble(%q) output %q does not validate: %v", tt.input, got, err)
		}
	}
}

func TestSplitLocalScope(t *testing.T) {
	tests := []struct {
		input string
		scope LocalScope
		rest  string
	}{
		{"I 2+", LocalScope{Half: 1}, "2+"},
		{"II 0-1", LocalScope{Half: 2}, "0-1"},
		{"DI 1+", LocalScope{Half: 1, Team: 1}, "1+"},
		{"GII 2+", LocalScope{Half: 2, Team: 2}, "2+"},
		{"D 2+", LocalScope{Team: 1}, "2+"},
		{"G 1+", LocalScope{Team: 2}, "1+"},
		{"2+", LocalScope{}, "2+"},
		{"I GG", LocalScope{Half: 1}, "GG"},
	}
	for _, tt := range tests {
		scope, rest := SplitLocalScope(tt.input)
		if scope != tt.scope || rest != tt.rest {
			t.Errorf("SplitLocalScope(%q) = %+v, %q, want %+v, %q",
				tt.input, scope, rest, tt.scope, tt.rest)
		}
	}
}

func TestFoldLocalTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"GG", "GG"},
		{"NE GG", "!GG"},
		{"NE 1/1", "!1/1"},
		{"1 v X", "1|X"},
		{"1/1 v X/X", "1/1|X/X"},
		{"3 gol.", "T3"},
		{"Tim1", "H"},
		{"Tim2", "A"},
		{"D", "H"},
		{"G", "A"},
		{"0 - 2", "0-2"},
		{"2 +", "2+"},
	}
	for _, tt := range tests {
		if got := FoldLocalTokens(tt.input); got != tt.expected {
			t.Errorf("FoldLocalTokens(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestScopeFullTime(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"H1:1+&2+", "H1:1+&FT:2+"},
		{"H2:0-1&3+", "H2:0-1&FT:3+"},
		{"H1:1+&FT:2+", "H1:1+&FT:2+"},
		{"1&2-3", "1&2-3"}, // no half part, nothing to scope
		{"H1:2+", "H1:2+"}, // no combo
		{"H1:GG&2", "H1:GG&FT:2"},
	}
	for _, tt := range tests {
		if got := ScopeFullTime(tt.input); got != tt.expected {
			t.Errorf("ScopeFullTime(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRerouteExactGoals(t *testing.T) {
	tests := []struct {
		name      string
		betTypeID int
		sel       string
		wantType  int
		wantSel   string
	}{
		{"digit in goal range moves to exact goals", BTGoalsRange, "3", BTExactGoals, "T3"},
		{"exact token in goal range moves to exact goals", BTGoalsRange, "T3", BTExactGoals, "T3"},
		{"digit in team goals keeps the type", BTTeam1Goals, "2", BTTeam1Goals, "T2"},
		{"exact token in team goals keeps the type", BTTeam1Goals, "T2", BTTeam1Goals, "T2"},
		{"digit in half range keeps the type", BTGoalsRangeH1, "1", BTGoalsRangeH1, "T1"},
		{"range selections pass through", BTGoalsRange, "0-2", BTGoalsRange, "0-2"},
		{"open range passes through", BTGoalsRange, "3+", BTGoalsRange, "3+"},
		{"non goal type passes through", BTHTFT, "1", BTHTFT, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotSel := RerouteExactGoals(tt.betTypeID, tt.sel)
			if gotType != tt.wantType || gotSel != tt.wantSel {
				t.Errorf("RerouteExactGoals(%d, %q) = %d, %q, want %d, %q",
					tt.betTypeID, tt.sel, gotType, gotSel, tt.wantType, tt.wantSel)
			}
		})
	}
}

func TestHandicapFolds(t *testing.T) {
	// Raw -1.5 in the negated vendor convention is the same wager as
	// canonical +1.5: both must land on one margin.
	if got := InvertHandicap(-1.5); got != 1.5 {
		t.Errorf("InvertHandicap(-1.5) = %v, want 1.5", got)
	}
	if got := InvertHandicap(0); got != 0 {
		t.Errorf("InvertHandicap(0) = %v, want 0", got)
	}

	tests := []struct {
		spec     string
		expected float64
	}{
		{"0:1", 1},
		{"1:0", -1},
		{"0:2", 2},
		{"0:0", 0},
	}
	for _, tt := range tests {
		got, err := EuroHandicapMargin(tt.spec)
		if err != nil {
			t.Errorf("EuroHandicapMargin(%q) error: %v", tt.spec, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("EuroHandicapMargin(%q) = %v, want %v", tt.spec, got, tt.expected)
		}
	}
	if _, err := EuroHandicapMargin("junk"); err == nil {
		t.Errorf("EuroHandicapMargin(\"junk\") = nil error, want error")
	}
}

func TestExpandScoreShortcut(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"10", "1:0"},
		{"22", "2:2"},
		{"1:0", "1:0"},
		{"3+", "3+"},
	}
	for _, tt := range tests {
		if got := ExpandScoreShortcut(tt.input); got != tt.expected {
			t.Errorf("ExpandScoreShortcut(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFirstGoalSide(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"Tim1", "H", true},
		{"Tim2", "A", true},
		{"Niko", "X", true},
		{"1", "H", true},
		{"2", "A", true},
		{"X", "X", true},
		{"???", "", false},
	}
	for _, tt := range tests {
		got, ok := FirstGoalSide(tt.input)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("FirstGoalSide(%q) = %q, %v, want %q, %v",
				tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}
