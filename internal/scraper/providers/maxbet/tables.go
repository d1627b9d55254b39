package maxbet

import (
	"github.com/nstojkov/betsnipe/internal/pkg/markets"
	"github.com/nstojkov/betsnipe/internal/scraper/providers/flatoffer"
)

// Odds codes from the site's betPickMap. Margins for param markets live in
// the match params block; the platform reports handicap lines negated, the
// family walker inverts them.

// dc expands the site's HT/FT double chance spellings ("1X/12") into the
// canonical alternative form.
func dc(sel string) string { return markets.ExpandHTFTDouble(sel) }

var football = flatoffer.Tables{
	ThreeWay: []flatoffer.ThreeWay{
		{BetType: markets.BT1X2, C1: "1", CX: "2", C2: "3"},
		{BetType: markets.BT1X2H1, C1: "4", CX: "5", C2: "6"},
		{BetType: markets.BT1X2H2, C1: "235", CX: "236", C2: "237"},
		{BetType: markets.BTDoubleChance, C1: "7", CX: "8", C2: "9"},
		{BetType: markets.BTDoubleChanceH1, C1: "397", CX: "398", C2: "399"},
		{BetType: markets.BTFirstGoal, C1: "204", CX: "205", C2: "206"},
		{BetType: markets.BTHalfMoreGoals, C1: "29", CX: "30", C2: "31"},
	},
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTBTTS, C1: "272", C2: "273"},
		{BetType: markets.BTOddEven, C1: "231", C2: "232"},
		{BetType: markets.BTDrawNoBet, C1: "264", C2: "265"},
		{BetType: markets.BTDoubleWin, C1: "295", C2: "296"},
		{BetType: markets.BTWinToNil, C1: "282", C2: "283"},
		{BetType: markets.BTDrawNoBetH1, C1: "611", C2: "612"},
	},
	FixedTotals: []flatoffer.FixedTotal{
		{BetType: markets.BTTotal, Line: 1.5, Under: "21", Over: "242"},
		{BetType: markets.BTTotal, Line: 2.5, Under: "22", Over: "24"},
		{BetType: markets.BTTotal, Line: 3.5, Under: "219", Over: "25"},
		{BetType: markets.BTTotal, Line: 4.5, Under: "453", Over: "27"},
		{BetType: markets.BTTotal, Line: 5.5, Under: "266", Over: "223"},
		{BetType: markets.BTTotalH1, Line: 0.5, Under: "267", Over: "207"},
		{BetType: markets.BTTotalH1, Line: 1.5, Under: "211", Over: "208"},
		{BetType: markets.BTTotalH1, Line: 2.5, Under: "472", Over: "209"},
		{BetType: markets.BTTotalH2, Line: 0.5, Under: "269", Over: "213"},
		{BetType: markets.BTTotalH2, Line: 1.5, Under: "217", Over: "214"},
		{BetType: markets.BTTotalH2, Line: 2.5, Under: "474", Over: "215"},
	},
	ParamTotals: []flatoffer.ParamTotal{
		{BetType: markets.BTTeam1Points, Param: "homeOverUnder", Under: "355", Over: "356"},
		{BetType: markets.BTTeam2Points, Param: "awayOverUnder", Under: "357", Over: "358"},
		{BetType: markets.BTTeam1TotalH1, Param: "homeOverUnderFirstHalf", Under: "371", Over: "372"},
		{BetType: markets.BTTeam2TotalH1, Param: "awayOverUnderFirstHalf", Under: "373", Over: "374"},
	},
	ParamHandicaps: []flatoffer.ParamHandicap{
		{BetType: markets.BTHandicapH1, Param: "hdp", C1: "224", C2: "226"},
	},
	EuroHandicaps: []flatoffer.ParamEuroHandicap{
		{Param: "hd2", C1: "201", CX: "202", C2: "203"},
		{Param: "handicap2", C1: "421", CX: "422", C2: "423"},
		{Param: "handicap3", C1: "424", CX: "425", C2: "426"},
	},
	Selections: []flatoffer.SelectionGroup{
		{BetType: markets.BTCorrectScore, Codes: map[string]string{
			"51": "0:0", "52": "1:0", "54": "2:0", "56": "3:0", "58": "4:0",
			"53": "0:1", "67": "1:1", "68": "2:1", "70": "3:1", "72": "4:1",
			"55": "0:2", "69": "1:2", "82": "2:2", "83": "3:2", "85": "4:2",
			"57": "0:3", "71": "1:3", "84": "2:3", "95": "3:3", "96": "4:3",
			"59": "0:4", "73": "1:4", "86": "2:4", "97": "3:4", "106": "4:4",
		}},
		{BetType: markets.BTHTFT, Codes: map[string]string{
			"10": "1/1", "11": "1/X", "12": "1/2",
			"13": "X/1", "14": "X/X", "15": "X/2",
			"16": "2/1", "17": "2/X", "18": "2/2",
		}},
		{BetType: markets.BTHTFTDC, Codes: map[string]string{
			"831": dc("1X/1X"), "832": dc("1X/12"), "833": dc("1X/X2"),
			"834": dc("12/1X"), "835": dc("12/12"), "836": dc("12/X2"),
			"837": dc("X2/1X"), "838": dc("X2/12"), "839": dc("X2/X2"),
			"840": dc("1/1X"), "841": dc("1/12"), "842": dc("1/X2"),
			"843": dc("X/1X"), "844": dc("X/12"), "845": dc("X/X2"),
			"846": dc("2/1X"), "847": dc("2/12"), "848": dc("2/X2"),
			"849": dc("1X/1"), "850": dc("1X/X"), "851": dc("1X/2"),
			"852": dc("12/1"), "853": dc("12/X"), "854": dc("12/2"),
			"855": dc("X2/1"), "856": dc("X2/X"), "857": dc("X2/2"),
		}},
		{BetType: markets.BTExactGoals, Codes: map[string]string{
			"320": "1", "221": "2", "222": "3", "321": "4",
		}},
		{BetType: markets.BTGoalsRange, Codes: map[string]string{
			"278": "1-2", "279": "1-3", "280": "1-4", "380": "1-5", "381": "1-6",
			"23": "2-3", "243": "2-4", "333": "2-5", "220": "2-6",
			"244": "3-4", "281": "3-5", "382": "3-6",
			"379": "4-5", "26": "4-6",
		}},
		{BetType: markets.BTTeam1Goals, Codes: map[string]string{
			"247": "0-1", "551": "0-2", "553": "0-3",
			"478": "1-2", "479": "1-3", "480": "2-3",
			"248": "2+", "276": "3+", "555": "4+",
			"323": "T1", "324": "T2", "484": "T3",
		}},
		{BetType: markets.BTTeam2Goals, Codes: map[string]string{
			"249": "0-1", "552": "0-2", "554": "0-3",
			"481": "1-2", "482": "1-3", "483": "2-3",
			"250": "2+", "277": "3+", "556": "4+",
			"325": "T1", "326": "T2", "485": "T3",
		}},
		{BetType: markets.BTGoalsRangeH1, Codes: map[string]string{
			"267": "T0", "268": "T1", "777": "T2", "779": "T3",
			"476": "1-2", "477": "1-3", "212": "2-3",
		}},
		{BetType: markets.BTGoalsRangeH2, Codes: map[string]string{
			"269": "T0", "270": "T1", "782": "T2", "784": "T3",
			"606": "1-2", "607": "1-3", "218": "2-3",
		}},
		{BetType: markets.BTTeam1GoalsH1, Codes: map[string]string{
			"337": "T0", "341": "T1",
			"307": "1+", "274": "2+", "349": "3+",
		}},
		{BetType: markets.BTTeam2GoalsH1, Codes: map[string]string{
			"338": "T0", "342": "T1",
			"308": "1+", "275": "2+", "350": "3+",
		}},
		{BetType: markets.BTTeam1GoalsH2, Codes: map[string]string{
			"339": "T0", "343": "T1",
			"312": "1+", "297": "2+", "351": "3+",
		}},
		{BetType: markets.BTTeam2GoalsH2, Codes: map[string]string{
			"340": "T0", "344": "T1",
			"313": "1+", "298": "2+", "352": "3+",
		}},
	},
}

var basketball = flatoffer.Tables{
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTWinner, C1: "50291", C2: "50293"},
	},
	ParamTotals: []flatoffer.ParamTotal{
		{BetType: markets.BTTotalPoints, Param: "overUnderOvertime", Under: "50444", Over: "50445"},
		{BetType: markets.BTTotalPoints, Param: "overUnderOvertime3", Under: "50448", Over: "50449"},
		{BetType: markets.BTTotalPoints, Param: "overUnderOvertime4", Under: "50450", Over: "50451"},
		{BetType: markets.BTTotalPoints, Param: "overUnderOvertime5", Under: "50452", Over: "50453"},
		{BetType: markets.BTTotalPoints, Param: "overUnderOvertime6", Under: "50454", Over: "50455"},
		{BetType: markets.BTTotalH1, Param: "overUnderFirstHalf", Under: "50446", Over: "50447"},
		{BetType: markets.BTTeam1Points, Param: "homeOverUnderOvertime", Under: "50462", Over: "50463"},
		{BetType: markets.BTTeam2Points, Param: "awayOverUnderOvertime", Under: "50464", Over: "50465"},
		{BetType: markets.BTTeam1TotalH1, Param: "homeOverUnderFirstHalf", Under: "50466", Over: "50467"},
		{BetType: markets.BTTeam2TotalH1, Param: "awayOverUnderFirstHalf", Under: "50468", Over: "50469"},
	},
	ParamHandicaps: []flatoffer.ParamHandicap{
		{BetType: markets.BTHandicap, Param: "handicapOvertime", C1: "50458", C2: "50459"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime2", C1: "50432", C2: "50433"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime3", C1: "50434", C2: "50435"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime4", C1: "50436", C2: "50437"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime5", C1: "50438", C2: "50439"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime6", C1: "50440", C2: "50441"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime7", C1: "50442", C2: "50443"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime8", C1: "50981", C2: "50982"},
		{BetType: markets.BTHandicap, Param: "handicapOvertime9", C1: "51626", C2: "51627"},
		{BetType: markets.BTHandicapH1, Param: "handicapFirstHalf", C1: "50460", C2: "50461"},
	},
}

var tennis = flatoffer.Tables{
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTWinner, C1: "1", C2: "3"},
		{BetType: markets.BTFirstSet, C1: "50510", C2: "50511"},
		{BetType: markets.BTTiebreakS1, C1: "51196", C2: "51197"},
		{BetType: markets.BTOddEvenS1, C1: "50520", C2: "50521"},
	},
	ThreeWay: []flatoffer.ThreeWay{
		{BetType: markets.BTSetMoreGames, C1: "51061", CX: "51062", C2: "51063"},
	},
	ParamTotals: []flatoffer.ParamTotal{
		{BetType: markets.BTTotal, Param: "overUnderGames", Under: "254", Over: "256"},
	},
	ParamHandicaps: []flatoffer.ParamHandicap{
		{BetType: markets.BTHandicapSets, Param: "hd2", C1: "251", C2: "253"},
		{BetType: markets.BTHandicapGamesS1, Param: "handicapGames", C1: "50538", C2: "50539"},
	},
	Selections: []flatoffer.SelectionGroup{
		{BetType: markets.BTExactSets, Codes: map[string]string{
			"50544": "2:0", "50545": "0:2",
			"50548": "2:1", "50549": "1:2",
		}},
		{BetType: markets.BTSetMatchCombo, Codes: map[string]string{
			"50540": "1/1", "50541": "1/2",
			"50542": "2/1", "50543": "2/2",
		}},
		{BetType: markets.BTGamesRangeS1, Codes: map[string]string{
			"51198": "T6", "51199": "7-8", "51200": "9-12", "51201": "T13",
		}},
		{BetType: markets.BTGamesRangeS2, Codes: map[string]string{
			"51202": "T6", "51203": "7-8", "51204": "9-12", "51205": "T13",
		}},
	},
}

var hockey = flatoffer.Tables{
	ThreeWay: []flatoffer.ThreeWay{
		{BetType: markets.BT1X2, C1: "1", CX: "2", C2: "3"},
		{BetType: markets.BTDoubleChance, C1: "7", CX: "8", C2: "9"},
		// Period 1 and 2 keyed as the half variants.
		{BetType: markets.BT1X2H1, C1: "50495", CX: "50496", C2: "50497"},
		{BetType: markets.BT1X2H2, C1: "50498", CX: "50499", C2: "50500"},
	},
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTDrawNoBet, C1: "264", C2: "265"},
		{BetType: markets.BTBTTS, C1: "272", C2: "273"},
		{BetType: markets.BTOddEven, C1: "231", C2: "232"},
	},
	ParamTotals: []flatoffer.ParamTotal{
		{BetType: markets.BTTotal, Param: "overUnder", Under: "228", Over: "227"},
		{BetType: markets.BTTotal, Param: "overUnder2", Under: "427", Over: "429"},
		{BetType: markets.BTTotal, Param: "overUnder3", Under: "430", Over: "432"},
		{BetType: markets.BTTotalH1, Param: "overUnderFirstPeriod", Under: "50504", Over: "50505"},
		{BetType: markets.BTTeam1Points, Param: "homeOverUnder", Under: "355", Over: "356"},
		{BetType: markets.BTTeam2Points, Param: "awayOverUnder", Under: "357", Over: "358"},
	},
	ParamHandicaps: []flatoffer.ParamHandicap{
		{BetType: markets.BTHandicap, Param: "hd2", C1: "201", C2: "203"},
	},
}

var tableTennis = flatoffer.Tables{
	TwoWay: []flatoffer.TwoWay{
		{BetType: markets.BTWinner, C1: "1", C2: "3"},
	},
}
