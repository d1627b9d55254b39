package markets

// BetType is one entry of the canonical wager vocabulary. The table is
// append-only: ids are stable across releases and shared with the store.
type BetType struct {
	ID    int
	Name  string
	Arity int
	// Partition lists the complete selection set for an arity-1 bet type.
	// Only partitioned bet types may be combined into arbitrage; nil means
	// the selections form an open set.
	Partition []string
}

// Canonical bet type ids. Gaps are retired entries that must never be reused.
const (
	BTWinner          = 1 // two-way winner (tennis, table tennis)
	BT1X2             = 2
	BT1X2H1           = 3
	BT1X2H2           = 4
	BTTotal           = 5 // margin = goal line
	BTTotalH1         = 6
	BTTotalH2         = 7
	BTBTTS            = 8
	BTHandicap        = 9 // margin = line, positive = home advantage
	BTTotalPoints     = 10
	BTSpread          = 11
	BTMoneyline       = 12
	BTDoubleChance    = 13
	BTDrawNoBet       = 14
	BTOddEven         = 15
	BTDoubleWin       = 16
	BTWinToNil        = 17
	BTFirstGoal       = 18 // selections H, A, X
	BTHalfMoreGoals   = 19
	BTDoubleChanceH1  = 20
	BTDrawNoBetH1     = 21
	BTToQualify       = 22
	BTCorrectScore    = 23
	BTHTFT            = 24
	BTGoalsRange      = 25
	BTExactGoals      = 26
	BTTeam1Goals      = 27
	BTTeam2Goals      = 28
	BTGoalsRangeH1    = 29
	BTGoalsRangeH2    = 30
	BTTeam1GoalsH1    = 31
	BTTeam2GoalsH1    = 32
	BTTeam1GoalsH2    = 33
	BTTeam2GoalsH2    = 34
	BTGoalsH1H2Combo  = 35
	BTFirstGoalResult = 36
	BTHTFTDC          = 37
	BTResultTotal     = 38
	BTResultCombo     = 39
	BTResultHalfGoals = 40
	BTDCTotal         = 41
	BTDCHalfGoals     = 42
	BTDCCombo         = 43
	BTHTFTTotal       = 44
	BTHTFTCombo       = 45
	BTBTTSCombo       = 46
	BTChanceMix       = 47
	BTTeam1Points     = 48
	BTTeam2Points     = 49
	BTHandicapH1      = 50
	BTTeam1TotalH1    = 51
	BTTeam2TotalH1    = 52
	BTBestQuarter     = 53
	BTQuarterMost     = 54
	BTH1ResultTotal   = 55
	BTHandicapSets    = 56
	BTFirstSet        = 57
	BTHandicapGamesS1 = 58
	BTOddEvenS1       = 59
	BTTiebreakS1      = 60
	BTOddEvenS2       = 61
	BTTiebreakS2      = 62
	BTSetMoreGames    = 63
	BTSetMatchCombo   = 64
	BTExactSets       = 65
	BTGamesRangeS1    = 66
	BTGamesRangeS2    = 67
	BTWinnerGames     = 68
	BTP1WinGamesS1    = 69
	BTP1WinOddEvenS1  = 70
	BTP2WinGamesS1    = 71
	BTP2WinOddEvenS1  = 72
	BTWinnerSetGames  = 73
	BTH1ResultGoals   = 74
	BTOddEvenH1       = 77
	BTOddEvenH2       = 78
	BTCorrectScoreH1  = 79
	BTEuroHandicap    = 80 // margin = away line - home line
	BTLastGoal        = 89
	BTFirstGoalH1     = 100
	BTH1H2Result      = 113
	BTResultOr        = 114
	BTMultiScore      = 118
	BTTeam1GoalsCombo = 119
	BTTeam2GoalsCombo = 120
	BTHTFTOrTotal     = 124
)

// htftPartition is the nine-way complete outcome set of the HT/FT market.
var htftPartition = []string{
	"1/1", "1/X", "1/2",
	"X/1", "X/X", "X/2",
	"2/1", "2/X", "2/2",
}

var betTypes = map[int]BetType{
	BTWinner:          {ID: BTWinner, Name: "winner", Arity: 2},
	BT1X2:             {ID: BT1X2, Name: "1x2", Arity: 3},
	BT1X2H1:           {ID: BT1X2H1, Name: "1x2_h1", Arity: 3},
	BT1X2H2:           {ID: BT1X2H2, Name: "1x2_h2", Arity: 3},
	BTTotal:           {ID: BTTotal, Name: "total_over_under", Arity: 2},
	BTTotalH1:         {ID: BTTotalH1, Name: "total_h1", Arity: 2},
	BTTotalH2:         {ID: BTTotalH2, Name: "total_h2", Arity: 2},
	BTBTTS:            {ID: BTBTTS, Name: "btts", Arity: 2},
	BTHandicap:        {ID: BTHandicap, Name: "handicap", Arity: 2},
	BTTotalPoints:     {ID: BTTotalPoints, Name: "total_points", Arity: 2},
	BTSpread:          {ID: BTSpread, Name: "spread", Arity: 2},
	BTMoneyline:       {ID: BTMoneyline, Name: "moneyline", Arity: 2},
	BTDoubleChance:    {ID: BTDoubleChance, Name: "double_chance", Arity: 3},
	BTDrawNoBet:       {ID: BTDrawNoBet, Name: "draw_no_bet", Arity: 2},
	BTOddEven:         {ID: BTOddEven, Name: "odd_even", Arity: 2},
	BTDoubleWin:       {ID: BTDoubleWin, Name: "double_win", Arity: 2},
	BTWinToNil:        {ID: BTWinToNil, Name: "win_to_nil", Arity: 2},
	BTFirstGoal:       {ID: BTFirstGoal, Name: "first_goal", Arity: 3},
	BTHalfMoreGoals:   {ID: BTHalfMoreGoals, Name: "half_with_more_goals", Arity: 3},
	BTDoubleChanceH1:  {ID: BTDoubleChanceH1, Name: "double_chance_h1", Arity: 3},
	BTDrawNoBetH1:     {ID: BTDrawNoBetH1, Name: "draw_no_bet_h1", Arity: 2},
	BTToQualify:       {ID: BTToQualify, Name: "to_qualify", Arity: 2},
	BTCorrectScore:    {ID: BTCorrectScore, Name: "correct_score", Arity: 1},
	BTHTFT:            {ID: BTHTFT, Name: "ht_ft", Arity: 1, Partition: htftPartition},
	BTGoalsRange:      {ID: BTGoalsRange, Name: "total_goals_range", Arity: 1},
	BTExactGoals:      {ID: BTExactGoals, Name: "exact_goals", Arity: 1},
	BTTeam1Goals:      {ID: BTTeam1Goals, Name: "team1_goals", Arity: 1},
	BTTeam2Goals:      {ID: BTTeam2Goals, Name: "team2_goals", Arity: 1},
	BTGoalsRangeH1:    {ID: BTGoalsRangeH1, Name: "h1_total_goals_range", Arity: 1},
	BTGoalsRangeH2:    {ID: BTGoalsRangeH2, Name: "h2_total_goals_range", Arity: 1},
	BTTeam1GoalsH1:    {ID: BTTeam1GoalsH1, Name: "team1_goals_h1", Arity: 1},
	BTTeam2GoalsH1:    {ID: BTTeam2GoalsH1, Name: "team2_goals_h1", Arity: 1},
	BTTeam1GoalsH2:    {ID: BTTeam1GoalsH2, Name: "team1_goals_h2", Arity: 1},
	BTTeam2GoalsH2:    {ID: BTTeam2GoalsH2, Name: "team2_goals_h2", Arity: 1},
	BTGoalsH1H2Combo:  {ID: BTGoalsH1H2Combo, Name: "goals_h1_h2_combo", Arity: 1},
	BTFirstGoalResult: {ID: BTFirstGoalResult, Name: "first_goal_result", Arity: 1},
	BTHTFTDC:          {ID: BTHTFTDC, Name: "ht_ft_double_chance", Arity: 1},
	BTResultTotal:     {ID: BTResultTotal, Name: "result_total_goals", Arity: 1},
	BTResultCombo:     {ID: BTResultCombo, Name: "result_combo", Arity: 1},
	BTResultHalfGoals: {ID: BTResultHalfGoals, Name: "result_half_goals", Arity: 1},
	BTDCTotal:         {ID: BTDCTotal, Name: "dc_total_goals", Arity: 1},
	BTDCHalfGoals:     {ID: BTDCHalfGoals, Name: "dc_half_goals", Arity: 1},
	BTDCCombo:         {ID: BTDCCombo, Name: "dc_combo", Arity: 1},
	BTHTFTTotal:       {ID: BTHTFTTotal, Name: "ht_ft_total_goals", Arity: 1},
	BTHTFTCombo:       {ID: BTHTFTCombo, Name: "ht_ft_combo", Arity: 1},
	BTBTTSCombo:       {ID: BTBTTSCombo, Name: "btts_combo", Arity: 1},
	BTChanceMix:       {ID: BTChanceMix, Name: "chance_mix", Arity: 1},
	BTTeam1Points:     {ID: BTTeam1Points, Name: "team1_total_points", Arity: 2},
	BTTeam2Points:     {ID: BTTeam2Points, Name: "team2_total_points", Arity: 2},
	BTHandicapH1:      {ID: BTHandicapH1, Name: "handicap_h1", Arity: 2},
	BTTeam1TotalH1:    {ID: BTTeam1TotalH1, Name: "team1_total_h1", Arity: 2},
	BTTeam2TotalH1:    {ID: BTTeam2TotalH1, Name: "team2_total_h1", Arity: 2},
	BTBestQuarter:     {ID: BTBestQuarter, Name: "most_efficient_quarter_total", Arity: 2},
	BTQuarterMost:     {ID: BTQuarterMost, Name: "quarter_most_points", Arity: 1},
	BTH1ResultTotal:   {ID: BTH1ResultTotal, Name: "h1_result_total", Arity: 1},
	BTHandicapSets:    {ID: BTHandicapSets, Name: "handicap_sets", Arity: 2},
	BTFirstSet:        {ID: BTFirstSet, Name: "first_set_winner", Arity: 2},
	BTHandicapGamesS1: {ID: BTHandicapGamesS1, Name: "handicap_games_s1", Arity: 2},
	BTOddEvenS1:       {ID: BTOddEvenS1, Name: "odd_even_s1", Arity: 2},
	BTTiebreakS1:      {ID: BTTiebreakS1, Name: "tiebreak_s1", Arity: 2},
	BTOddEvenS2:       {ID: BTOddEvenS2, Name: "odd_even_s2", Arity: 2},
	BTTiebreakS2:      {ID: BTTiebreakS2, Name: "tiebreak_s2", Arity: 2},
	BTSetMoreGames:    {ID: BTSetMoreGames, Name: "set_with_more_games", Arity: 3},
	BTSetMatchCombo:   {ID: BTSetMatchCombo, Name: "first_set_match_combo", Arity: 1},
	BTExactSets:       {ID: BTExactSets, Name: "exact_sets", Arity: 1},
	BTGamesRangeS1:    {ID: BTGamesRangeS1, Name: "games_range_s1", Arity: 1},
	BTGamesRangeS2:    {ID: BTGamesRangeS2, Name: "games_range_s2", Arity: 1},
	BTWinnerGames:     {ID: BTWinnerGames, Name: "winner_total_games", Arity: 1},
	BTP1WinGamesS1:    {ID: BTP1WinGamesS1, Name: "p1_win_games_s1", Arity: 1},
	BTP1WinOddEvenS1:  {ID: BTP1WinOddEvenS1, Name: "p1_win_odd_even_s1", Arity: 2},
	BTP2WinGamesS1:    {ID: BTP2WinGamesS1, Name: "p2_win_games_s1", Arity: 1},
	BTP2WinOddEvenS1:  {ID: BTP2WinOddEvenS1, Name: "p2_win_odd_even_s1", Arity: 2},
	BTWinnerSetGames:  {ID: BTWinnerSetGames, Name: "winner_set_more_games", Arity: 1},
	BTH1ResultGoals:   {ID: BTH1ResultGoals, Name: "h1_result_total_goals", Arity: 1},
	BTOddEvenH1:       {ID: BTOddEvenH1, Name: "odd_even_h1", Arity: 2},
	BTOddEvenH2:       {ID: BTOddEvenH2, Name: "odd_even_h2", Arity: 2},
	BTCorrectScoreH1:  {ID: BTCorrectScoreH1, Name: "correct_score_h1", Arity: 1},
	BTEuroHandicap:    {ID: BTEuroHandicap, Name: "european_handicap", Arity: 3},
	BTLastGoal:        {ID: BTLastGoal, Name: "last_goal", Arity: 3},
	BTFirstGoalH1:     {ID: BTFirstGoalH1, Name: "first_goal_h1", Arity: 3},
	BTH1H2Result:      {ID: BTH1H2Result, Name: "h1_h2_result", Arity: 1},
	BTResultOr:        {ID: BTResultOr, Name: "result_or", Arity: 1},
	BTMultiScore:      {ID: BTMultiScore, Name: "multi_correct_score", Arity: 1},
	BTTeam1GoalsCombo: {ID: BTTeam1GoalsCombo, Name: "team1_goals_combo", Arity: 1},
	BTTeam2GoalsCombo: {ID: BTTeam2GoalsCombo, Name: "team2_goals_combo", Arity: 1},
	BTHTFTOrTotal:     {ID: BTHTFTOrTotal, Name: "ht_ft_or_total", Arity: 1},
}

// goalCountTypes are the bet types whose selections count goals; standalone
// digit selections inside them mean an exact count and take the T prefix.
var goalCountTypes = map[int]bool{
	BTGoalsRange:   true,
	BTExactGoals:   true,
	BTTeam1Goals:   true,
	BTTeam2Goals:   true,
	BTGoalsRangeH1: true,
	BTGoalsRangeH2: true,
	BTTeam1GoalsH1: true,
	BTTeam2GoalsH1: true,
	BTTeam1GoalsH2: true,
	BTTeam2GoalsH2: true,
}

// ByID returns the vocabulary entry for a bet type id.
func ByID(id int) (BetType, bool) {
	bt, ok := betTypes[id]
	return bt, ok
}

// Arity returns the outcome arity for a bet type id, 0 if unknown.
func Arity(id int) int {
	if bt, ok := betTypes[id]; ok {
		return bt.Arity
	}
	return 0
}

// PartitionFor returns the declared complete selection set of an arity-1 bet
// type. ok is false when the bet type has no declared partition and must not
// be combined into arbitrage.
func PartitionFor(id int) ([]string, bool) {
	bt, ok := betTypes[id]
	if !ok || bt.Arity != 1 || len(bt.Partition) == 0 {
		return nil, false
	}
	return bt.Partition, true
}

// All returns every vocabulary entry, for store seeding and tooling.
func All() []BetType {
	out := make([]BetType, 0, len(betTypes))
	for _, bt := range betTypes {
		out = append(out, bt)
	}
	return out
}

// IsGoalCount reports whether the bet type's selections count goals.
func IsGoalCount(id int) bool {
	return goalCountTypes[id]
}
