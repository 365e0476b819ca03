package main

import (
	"sort"
)

type submission struct {
	playerID string
	text     string
}

// answerGroup is computed once per round, broadcast in the reveal message,
// then discarded.
type answerGroup struct {
	Text    string   `json:"text"`
	Players []string `json:"players"`
	Count   int      `json:"count"`
	Points  int      `json:"points"`

	key string
}

// groupAnswers partitions the round's submissions into equivalence groups.
// Greedy first-match in submission order: each answer joins the first group
// whose representative it is similar to, otherwise opens a new group with
// itself as representative. Groups are returned sorted by descending size,
// stable for equal sizes.
func groupAnswers(m *matcher, submissions []submission) []*answerGroup {
	groups := []*answerGroup{}

	for _, sub := range submissions {
		key := m.normalize(sub.text)

		var match *answerGroup
		for _, group := range groups {
			if m.similarKeys(sub.text, key, group.Text, group.key) {
				match = group
				break
			}
		}

		if match != nil {
			match.Players = append(match.Players, sub.playerID)
			match.Count++
		} else {
			groups = append(groups, &answerGroup{
				Text:    sub.text,
				key:     key,
				Players: []string{sub.playerID},
				Count:   1,
			})
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})

	return groups
}

// scoreRound applies group points to player scores and reassigns the pink
// cow. Singletons score nothing; a group of size k awards k points to each
// member, doubled when the whole round converged on a single group with more
// than two submitters ("mind meld"). The cow moves only when exactly one
// player gave an unmatched answer this round.
func scoreRound(groups []*answerGroup, players map[string]*Player) {
	submitted := 0
	for _, group := range groups {
		submitted += group.Count
	}

	mindMeld := len(groups) == 1 && submitted > 2

	var unmatched []string

	for _, group := range groups {
		points := 0
		if group.Count > 1 {
			points = group.Count
		}
		if mindMeld {
			points *= 2
		}
		group.Points = points

		for _, id := range group.Players {
			if player, ok := players[id]; ok {
				player.Score += points
			}
		}

		if group.Count == 1 {
			unmatched = append(unmatched, group.Players...)
		}
	}

	if len(unmatched) == 1 {
		for _, player := range players {
			player.HasPinkCow = false
		}
		if player, ok := players[unmatched[0]]; ok {
			player.HasPinkCow = true
		}
	}
}
