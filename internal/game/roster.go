package game

import "fmt"

// NewRoster creates n fresh players with sequential ids and company names,
// each with a newly generated password. Used at game setup and reset.
func NewRoster(n int, settings GameSettings) []*Player {
	players := make([]*Player, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, NewPlayer(
			fmt.Sprintf("player%d", i),
			fmt.Sprintf("Company %d", i),
			settings,
		))
	}
	return players
}
