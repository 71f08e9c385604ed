package main

import "github.com/ahmed11551/tasbix09-sub001/session"

var items = []session.Item{
	{ID: "subhanallah", Text: "Subhan Allah", Target: 33},
	{ID: "alhamdulillah", Text: "Alhamdu lillah", Target: 33},
	{ID: "allahu-akbar", Text: "Allahu akbar", Target: 34},
	{ID: "la-ilaha-illallah", Text: "La ilaha illa Allah", Target: 100},
	{ID: "astaghfirullah", Text: "Astaghfirullah", Target: 100},
}

var goalPresets = []int{0, 33, 99, 100, 1000}

// itemOf finds a preset by id. Unknown ids count freely with no goal.
func itemOf(id string) (session.Item, int) {
	for i, item := range items {
		if item.ID == id {
			return item, i
		}
	}

	return session.Item{ID: id, Text: id}, -1
}

func nextGoal(current int) int {
	for _, preset := range goalPresets {
		if preset > current {
			return preset
		}
	}

	return goalPresets[0]
}
