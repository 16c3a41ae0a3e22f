// Package scoring aggregates star ratings into a ranked leaderboard.
// Everything here is a pure function of its inputs; callers load the data.
package scoring

import (
	"sort"

	"github.com/abrezinsky/livevote/internal/models"
)

// CategoryScore is a group's result in one category over its complete votes
type CategoryScore struct {
	CategoryID int64   `json:"category_id"`
	Name       string  `json:"name"`
	Total      int     `json:"total"`
	Count      int     `json:"count"`
	Average    float64 `json:"average"`
}

// GroupScore is one row of the leaderboard
type GroupScore struct {
	Group        models.Group    `json:"group"`
	Rank         int             `json:"rank"`
	TotalScore   int             `json:"total_score"`
	AverageScore float64         `json:"average_score"`
	VoteCount    int             `json:"vote_count"`
	Categories   []CategoryScore `json:"categories"`
}

// CategoryAverage returns the group's average for a category, 0 if unknown
func (g GroupScore) CategoryAverage(categoryID int64) float64 {
	for _, c := range g.Categories {
		if c.CategoryID == categoryID {
			return c.Average
		}
	}
	return 0
}

// Tier is one podium position; every group sharing Score is included
type Tier struct {
	Score  int          `json:"score"`
	Groups []GroupScore `json:"groups"`
}

// Podium holds the top three distinct total scores
type Podium struct {
	First  Tier `json:"first"`
	Second Tier `json:"second"`
	Third  Tier `json:"third"`
}

// CategoryWinner lists every group reaching the best average of a category
type CategoryWinner struct {
	Category models.Category `json:"category"`
	Average  float64         `json:"average"`
	Winners  []GroupScore    `json:"winners"`
	IsTie    bool            `json:"is_tie"`
}

// Leaderboard is the full result of a computation
type Leaderboard struct {
	Groups          []GroupScore     `json:"full_leaderboard"`
	Podium          Podium           `json:"podium"`
	CategoryWinners []CategoryWinner `json:"category_winners"`
}

// IsComplete reports whether the vote rates every given category
func IsComplete(vote models.Vote, categories []models.Category) bool {
	rated := make(map[int64]bool, len(vote.Ratings))
	for _, r := range vote.Ratings {
		rated[r.CategoryID] = true
	}
	for _, c := range categories {
		if !rated[c.ID] {
			return false
		}
	}
	return true
}

// Compute builds the leaderboard. groups must be in presentation order: it is
// the final tie-break. Votes that do not cover every category are ignored, and
// ratings for categories not in the list are not counted.
func Compute(categories []models.Category, groups []models.Group, votes []models.Vote) Leaderboard {
	byGroup := make(map[int64][]models.Vote)
	for _, v := range votes {
		if IsComplete(v, categories) {
			byGroup[v.GroupID] = append(byGroup[v.GroupID], v)
		}
	}

	scores := make([]GroupScore, 0, len(groups))
	for _, g := range groups {
		scores = append(scores, scoreGroup(g, categories, byGroup[g.ID]))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].TotalScore != scores[j].TotalScore {
			return scores[i].TotalScore > scores[j].TotalScore
		}
		return scores[i].VoteCount > scores[j].VoteCount
	})
	assignRanks(scores)

	return Leaderboard{
		Groups:          scores,
		Podium:          buildPodium(scores),
		CategoryWinners: categoryWinners(categories, scores),
	}
}

func scoreGroup(g models.Group, categories []models.Category, complete []models.Vote) GroupScore {
	known := make(map[int64]int, len(categories))
	cats := make([]CategoryScore, len(categories))
	for i, c := range categories {
		known[c.ID] = i
		cats[i] = CategoryScore{CategoryID: c.ID, Name: c.Name}
	}

	total := 0
	for _, v := range complete {
		for _, r := range v.Ratings {
			i, ok := known[r.CategoryID]
			if !ok {
				continue
			}
			total += r.Stars
			cats[i].Total += r.Stars
			cats[i].Count++
		}
	}
	for i := range cats {
		if cats[i].Count > 0 {
			cats[i].Average = float64(cats[i].Total) / float64(cats[i].Count)
		}
	}

	score := GroupScore{
		Group:      g,
		TotalScore: total,
		VoteCount:  len(complete),
		Categories: cats,
	}
	if score.VoteCount > 0 {
		score.AverageScore = float64(total) / float64(score.VoteCount)
	}
	return score
}

// assignRanks uses competition ranking: equal (total, votes) share a rank, the next rank skips
func assignRanks(scores []GroupScore) {
	for i := range scores {
		if i > 0 && scores[i].TotalScore == scores[i-1].TotalScore && scores[i].VoteCount == scores[i-1].VoteCount {
			scores[i].Rank = scores[i-1].Rank
			continue
		}
		scores[i].Rank = i + 1
	}
}

func buildPodium(sorted []GroupScore) Podium {
	var tiers []Tier
	for _, s := range sorted {
		if n := len(tiers); n > 0 && tiers[n-1].Score == s.TotalScore {
			tiers[n-1].Groups = append(tiers[n-1].Groups, s)
			continue
		}
		if len(tiers) == 3 {
			break
		}
		tiers = append(tiers, Tier{Score: s.TotalScore, Groups: []GroupScore{s}})
	}

	var p Podium
	for i, t := range tiers {
		switch i {
		case 0:
			p.First = t
		case 1:
			p.Second = t
		case 2:
			p.Third = t
		}
	}
	return p
}

func categoryWinners(categories []models.Category, scores []GroupScore) []CategoryWinner {
	winners := make([]CategoryWinner, 0, len(categories))
	if len(scores) == 0 {
		return winners
	}
	for _, c := range categories {
		best := 0.0
		for _, s := range scores {
			if avg := s.CategoryAverage(c.ID); avg > best {
				best = avg
			}
		}
		w := CategoryWinner{Category: c, Average: best}
		for _, s := range scores {
			if s.CategoryAverage(c.ID) == best {
				w.Winners = append(w.Winners, s)
			}
		}
		w.IsTie = len(w.Winners) > 1
		winners = append(winners, w)
	}
	return winners
}
