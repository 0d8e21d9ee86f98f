// Package pillar holds the built-in MEDDPICC configuration catalogue:
// the eight pillar definitions with their question banks and coaching
// templates, the stage gates, risk rules, and benchmark segments.
//
// Default() is the configuration the engine runs with until a caller
// installs a replacement; the values are business policy defaults, kept
// here rather than scattered as compiled-in constants so alternate
// configurations can be injected wholesale.
package pillar

import (
	"time"

	"github.com/dealgrid/meddpicc/internal/model"
)

// Per-pillar weights. Economic Buyer carries the most, Paper Process the
// least.
const (
	weightMetrics          = 1.2
	weightEconomicBuyer    = 1.3
	weightDecisionCriteria = 1.1
	weightDecisionProcess  = 1.0
	weightPaperProcess     = 0.9
	weightImplicatePain    = 1.2
	weightChampion         = 1.1
	weightCompetition      = 1.0
)

// Default returns the built-in configuration, version 1.
func Default() model.Configuration {
	return model.Configuration{
		Version: 1,
		Pillars: defaultPillars(),
		Stages: []model.StageGate{
			{Stage: model.StageProspect, MinTotalScore: 80, MinPillarScore: 20,
				RequiredPillars: []model.PillarID{model.PillarImplicatePain, model.PillarMetrics}},
			{Stage: model.StageEngage, MinTotalScore: 160, MinPillarScore: 20,
				RequiredPillars: []model.PillarID{model.PillarChampion, model.PillarEconomicBuyer, model.PillarImplicatePain}},
			{Stage: model.StageAcquire, MinTotalScore: 240, MinPillarScore: 20,
				RequiredPillars: []model.PillarID{model.PillarDecisionCriteria, model.PillarDecisionProcess, model.PillarPaperProcess}},
			{Stage: model.StageKeep, MinTotalScore: 280, MinPillarScore: 20,
				RequiredPillars: []model.PillarID{model.PillarMetrics, model.PillarChampion}},
		},
		Risk: model.RiskRules{
			CriticalPillars: []model.PillarID{model.PillarEconomicBuyer, model.PillarChampion, model.PillarImplicatePain},
			CriticalScore:   100, CriticalRatio: 0.30, CriticalConf: 50,
			HighScore: 180, HighRatio: 0.50, HighConf: 65,
			MediumScore: 240, MediumRatio: 0.70, MediumConf: 80,
		},
		Thresholds: model.Thresholds{
			PillarMax:              40,
			CriticalBand:           0.30,
			ImprovementBand:        0.60,
			StrengthBand:           0.80,
			MaxCoachingActions:     5,
			LowConfidenceLimit:     3,
			WeakConfidence:         60,
			StrongScoreMin:         256, // 80% of the 320-point raw maximum
			ModerateScoreMin:       192, // 60%
			PillarRiskMean:         16,  // 40% of a pillar's 40-point maximum
			PillarOpportunityMean:  24,  // 60%
			BenchmarkVarianceAlert: 20,
		},
		Benchmarks: defaultBenchmarks(),
		UpdatedAt:  time.Time{},
	}
}

func defaultPillars() []model.PillarDefinition {
	return []model.PillarDefinition{
		{
			ID:          model.PillarMetrics,
			Title:       "Metrics",
			Description: "Quantified economic impact the customer expects from the solution.",
			Weight:      weightMetrics,
			Questions: []model.QuestionDefinition{
				question("metrics_identified", "Have the target business metrics been identified?",
					option("No business metrics discussed", "none", 0),
					option("Rough estimates mentioned by us", "estimated", 5),
					option("Metrics drafted with the customer", "drafted", 10),
					option("Metrics tied to a named initiative", "tied", 20),
				),
				question("metrics_validated", "Has the economic impact been validated?",
					option("No quantification", "none", 0),
					option("Our model, not yet reviewed", "internal", 5),
					option("Reviewed with the champion", "reviewed", 10),
					option("Customer-validated ROI model", "validated", 20),
				),
			},
			SuccessCriteria: []string{
				"ROI model validated by the customer's own numbers",
				"Metrics tied to an executive initiative",
			},
			CoachingTips: []string{
				"Anchor every demo to a metric the customer named",
				"Express impact in the currency the economic buyer reports on",
			},
			CriticalActions: []string{
				"quantify the current cost of the problem with the customer",
				"build a draft ROI model and review it with your champion",
			},
			ImprovementActions: []string{
				"validate your ROI assumptions with customer-owned data",
			},
		},
		{
			ID:          model.PillarEconomicBuyer,
			Title:       "Economic Buyer",
			Description: "Access to and engagement with the person who owns the budget.",
			Weight:      weightEconomicBuyer,
			Questions: []model.QuestionDefinition{
				question("eb_identified", "Is the economic buyer identified?",
					option("Economic buyer not identified", "unknown", 0),
					option("Likely candidates named", "candidates", 10),
					option("Confirmed by the champion", "confirmed", 20),
				),
				question("eb_engaged", "How engaged is the economic buyer?",
					option("Not engaged", "none", 0),
					option("One meeting held", "met", 10),
					option("Recurring engagement with agreed next steps", "engaged", 20),
				),
			},
			SuccessCriteria: []string{
				"Economic buyer has articulated why this purchase matters to them",
				"Direct communication channel established",
			},
			CoachingTips: []string{
				"Champions open doors; economic buyers sign — treat them differently",
			},
			CriticalActions: []string{
				"map all budget decision makers",
				"request a champion-facilitated introduction",
				"prepare an executive summary for the first meeting",
			},
			ImprovementActions: []string{
				"secure a recurring touchpoint with the economic buyer",
			},
		},
		{
			ID:          model.PillarDecisionCriteria,
			Title:       "Decision Criteria",
			Description: "The formal and informal criteria the customer will use to decide.",
			Weight:      weightDecisionCriteria,
			Questions: []model.QuestionDefinition{
				question("dc_documented", "Are the decision criteria documented?",
					option("Criteria unknown", "unknown", 0),
					option("Partially understood", "partial", 10),
					option("Documented and confirmed", "documented", 20),
				),
				question("dc_influenced", "Have you influenced the criteria?",
					option("No influence", "none", 0),
					option("Differentiators proposed", "proposed", 10),
					option("Criteria shaped in our favor", "shaped", 20),
				),
			},
			SuccessCriteria: []string{
				"Written criteria confirmed by the evaluation team",
				"At least one criterion reflects our differentiation",
			},
			CoachingTips: []string{
				"Unwritten criteria decide deals; ask who else gets a vote",
			},
			CriticalActions: []string{
				"ask the evaluation lead for the written decision criteria",
				"workshop criteria with your champion before they are finalized",
			},
			ImprovementActions: []string{
				"map each criterion to proof points and close the gaps",
			},
		},
		{
			ID:          model.PillarDecisionProcess,
			Title:       "Decision Process",
			Description: "The steps, people, and timeline the customer follows to a decision.",
			Weight:      weightDecisionProcess,
			Questions: []model.QuestionDefinition{
				question("dp_mapped", "How well is the decision process mapped?",
					option("Process unknown", "unknown", 0),
					option("Key steps known", "partial", 10),
					option("Full process and owners mapped", "mapped", 20),
				),
				question("dp_close_plan", "Is there a mutual close plan?",
					option("No plan", "none", 0),
					option("Drafted, not shared", "drafted", 10),
					option("Agreed with the customer", "agreed", 20),
				),
			},
			SuccessCriteria: []string{
				"Every approval step has a named owner and date",
				"Mutual close plan shared with the customer",
			},
			CoachingTips: []string{
				"A date without a process behind it is a hope, not a forecast",
			},
			CriticalActions: []string{
				"document every step from evaluation to signature",
				"confirm the timeline with the person who owns each step",
			},
			ImprovementActions: []string{
				"propose a mutual close plan and get customer sign-off",
			},
		},
		{
			ID:          model.PillarPaperProcess,
			Title:       "Paper Process",
			Description: "Legal, procurement, and security review path to a signed contract.",
			Weight:      weightPaperProcess,
			Questions: []model.QuestionDefinition{
				question("pp_known", "How well do you understand the paper process?",
					option("Not discussed", "unknown", 0),
					option("Procurement contact identified", "identified", 10),
					option("Review steps and durations known", "known", 20),
				),
				question("pp_started", "Has the paperwork started?",
					option("Not started", "none", 0),
					option("Vendor onboarding submitted", "submitted", 10),
					option("Legal and security review in motion", "in_motion", 20),
				),
			},
			SuccessCriteria: []string{
				"Security and legal review durations confirmed",
				"Procurement engaged before the verbal yes",
			},
			CoachingTips: []string{
				"Paper process time is deal time; start it in parallel, not after",
			},
			CriticalActions: []string{
				"identify the procurement and legal contacts",
				"ask for the standard vendor onboarding checklist",
			},
			ImprovementActions: []string{
				"start security review in parallel with the evaluation",
			},
		},
		{
			ID:          model.PillarImplicatePain,
			Title:       "Implicate the Pain",
			Description: "The cost of the status quo, acknowledged by the customer.",
			Weight:      weightImplicatePain,
			Questions: []model.QuestionDefinition{
				question("ip_acknowledged", "Has the customer acknowledged the pain?",
					option("No pain identified", "none", 0),
					option("Pain stated by us, not confirmed", "stated", 5),
					option("Customer confirmed the pain", "confirmed", 20),
				),
				question("ip_cost", "Is the cost of inaction quantified?",
					option("Not discussed", "none", 0),
					option("Estimated by us", "estimated", 10),
					option("Customer quantified the cost of inaction", "quantified", 20),
				),
			},
			SuccessCriteria: []string{
				"Customer repeats the pain in their own words",
				"Cost of doing nothing is on the table",
			},
			CoachingTips: []string{
				"Deals die to 'no decision' more than to competitors — price the status quo",
			},
			CriticalActions: []string{
				"run a discovery session focused on the cost of the status quo",
				"get the customer to restate the pain in their own words",
			},
			ImprovementActions: []string{
				"quantify the cost of inaction with the customer",
			},
		},
		{
			ID:          model.PillarChampion,
			Title:       "Champion",
			Description: "An internal seller with power, influence, and a personal win.",
			Weight:      weightChampion,
			Questions: []model.QuestionDefinition{
				question("ch_identified", "Do you have a champion?",
					option("No champion identified", "none", 0),
					option("Supporter without influence", "supporter", 10),
					option("Influential champion identified", "influential", 20),
				),
				question("ch_tested", "Has the champion been tested?",
					option("Not tested", "none", 0),
					option("Selling internally on request", "selling", 10),
					option("Tested, with an explicit personal win", "tested", 20),
				),
			},
			SuccessCriteria: []string{
				"Champion has sold for you in a meeting you were not in",
				"Champion's personal win is explicit",
			},
			CoachingTips: []string{
				"Test the champion: ask them to do something only a champion would",
			},
			CriticalActions: []string{
				"identify candidates with influence over the decision",
				"develop a champion by giving them wins to share internally",
			},
			ImprovementActions: []string{
				"test your champion with an internal-selling task",
			},
		},
		{
			ID:          model.PillarCompetition,
			Title:       "Competition",
			Description: "Who else is competing, including the status quo, and our plan against them.",
			Weight:      weightCompetition,
			Questions: []model.QuestionDefinition{
				question("co_known", "How well do you know the competitive landscape?",
					option("Competitors unknown", "unknown", 0),
					option("Competitors identified", "identified", 10),
					option("Their strengths and traps understood", "understood", 20),
				),
				question("co_strategy", "Is a counter-strategy in play?",
					option("No strategy", "none", 0),
					option("Trap matrix drafted", "drafted", 10),
					option("Active counter-strategy in play", "countered", 20),
				),
			},
			SuccessCriteria: []string{
				"Every competitor has a named counter-strategy",
				"Evaluation criteria include our differentiators",
			},
			CoachingTips: []string{
				"The incumbent and 'do nothing' are competitors too",
			},
			CriticalActions: []string{
				"ask your champion who else is being evaluated",
				"build a trap matrix for each named competitor",
			},
			ImprovementActions: []string{
				"set traps in the decision criteria for competitor weaknesses",
			},
		},
	}
}

func defaultBenchmarks() map[string]model.Benchmark {
	return map[string]model.Benchmark{
		"enterprise": {
			Segment:     "enterprise",
			Description: "Enterprise deals (>$250k ACV)",
			PillarScores: map[model.PillarID]int{
				model.PillarMetrics: 34, model.PillarEconomicBuyer: 42,
				model.PillarDecisionCriteria: 33, model.PillarDecisionProcess: 30,
				model.PillarPaperProcess: 27, model.PillarImplicatePain: 36,
				model.PillarChampion: 35, model.PillarCompetition: 28,
			},
		},
		"mid_market": {
			Segment:     "mid_market",
			Description: "Mid-market deals ($25k-$250k ACV)",
			PillarScores: map[model.PillarID]int{
				model.PillarMetrics: 30, model.PillarEconomicBuyer: 36,
				model.PillarDecisionCriteria: 28, model.PillarDecisionProcess: 25,
				model.PillarPaperProcess: 22, model.PillarImplicatePain: 31,
				model.PillarChampion: 30, model.PillarCompetition: 24,
			},
		},
	}
}

func question(id, prompt string, opts ...model.AnswerOption) model.QuestionDefinition {
	return model.QuestionDefinition{
		ID:      id,
		Prompt:  prompt,
		Type:    model.AnswerTypeSingleSelect,
		Options: opts,
	}
}

func option(label, value string, score int) model.AnswerOption {
	return model.AnswerOption{Label: label, Value: value, Score: score}
}
