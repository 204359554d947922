package game

import "fmt"

// Player is one of the two participants of a game. Colour, not list
// position, decides who plays black.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"displayName"`
	Score  int    `json:"score"`
	Colour Cell   `json:"colour"`
}

// NewPlayer creates a player with zero score.
func NewPlayer(id, name string, colour Cell) Player {
	return Player{ID: id, Name: name, Colour: colour}
}

func (p *Player) IncrementScore() {
	p.Score++
}

func (p *Player) ResetScore() {
	p.Score = 0
}

// ChangeColour toggles between ColourA and ColourB.
func (p *Player) ChangeColour() {
	switch p.Colour {
	case ColourA:
		p.Colour = ColourB
	case ColourB:
		p.Colour = ColourA
	default:
		panic(fmt.Sprintf("game: player %s has unrecognised colour %d", p.ID, p.Colour))
	}
}
