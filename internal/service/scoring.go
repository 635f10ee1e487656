package service

import (
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"
)

// maxTraitMatch is the best per-trait match value; it drops by one for every
// point of distance between the result's weight and the user's score.
const maxTraitMatch = 10

// ScoreOutcome is what the scoring engine derives from a set of answers.
type ScoreOutcome struct {
	Score             int
	PersonalityResult *model.QuizResult
	ScoreResult       *model.QuizResult
	Traits            model.Traits
}

// ScoreAttempt scores answers against quiz. It only reads quiz.
func ScoreAttempt(quiz *model.Quiz, answers model.AttemptAnswers) (ScoreOutcome, error) {
	if quiz.IsPersonality() {
		traits, answered := AccumulateTraits(quiz.Questions, answers)
		result, err := MatchPersonality(quiz.Results, traits)
		if err != nil {
			return ScoreOutcome{}, err
		}
		return ScoreOutcome{Score: answered, PersonalityResult: result, Traits: traits}, nil
	}

	score := CountCorrect(quiz.Questions, answers)
	return ScoreOutcome{Score: score, ScoreResult: MatchScoreBand(quiz.Results, score)}, nil
}

// CountCorrect counts answers that hit their question's correct index.
// Unknown questions and out-of-range options count as wrong.
func CountCorrect(questions []model.Question, answers model.AttemptAnswers) int {
	score := 0
	for qi, selected := range answers {
		if qi < 0 || qi >= len(questions) {
			continue
		}
		q := questions[qi]
		if q.CorrectIndex != nil && *q.CorrectIndex == selected && selected >= 0 && selected < len(q.Options) {
			score++
		}
	}
	return score
}

// AccumulateTraits sums the trait weights of every selected option and
// returns them with the number of questions that received a valid answer.
func AccumulateTraits(questions []model.Question, answers model.AttemptAnswers) (model.Traits, int) {
	traits := model.Traits{}
	answered := 0
	for qi, selected := range answers {
		if qi < 0 || qi >= len(questions) {
			continue
		}
		options := questions[qi].Options
		if selected < 0 || selected >= len(options) {
			continue
		}
		answered++
		for name, weight := range options[selected].Traits.Data() {
			traits[name] += weight
		}
	}
	return traits, answered
}

// TraitMatch scores how close a result's traits are to the user's. Traits
// the user never accumulated do not contribute.
func TraitMatch(resultTraits, userTraits model.Traits) int {
	total := 0
	for name, want := range resultTraits {
		got, ok := userTraits[name]
		if !ok {
			continue
		}
		diff := want - got
		if diff < 0 {
			diff = -diff
		}
		if m := maxTraitMatch - diff; m > 0 {
			total += m
		}
	}
	return total
}

// MatchPersonality picks the result with the highest TraitMatch. Results are
// expected in position order; the earliest one wins a tie.
func MatchPersonality(results []model.QuizResult, userTraits model.Traits) (*model.QuizResult, error) {
	if len(results) == 0 {
		return nil, util.ErrPersonalityResultsMissing
	}
	best, bestScore := 0, -1
	for i := range results {
		if s := TraitMatch(results[i].Traits.Data(), userTraits); s > bestScore {
			best, bestScore = i, s
		}
	}
	return &results[best], nil
}

// MatchScoreBand returns the first result whose [MinScore, MaxScore] band
// contains score, or nil. Adjacent bands share a boundary, so the lower
// band wins there.
func MatchScoreBand(results []model.QuizResult, score int) *model.QuizResult {
	for i := range results {
		if results[i].Contains(score) {
			return &results[i]
		}
	}
	return nil
}
