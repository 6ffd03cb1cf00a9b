package mines

import (
	"fmt"
	"strings"
)

// Board limits. The engine compares statements pairwise after every
// observation, so its work grows quickly with the number of cells.
const (
	MaxWidth  = 64
	MaxHeight = 64
	MaxCells  = 1024
)

type GameParams struct {
	Width, Height, MineCount int
}

func (p GameParams) Unpack() (w int, h int, mc int) {
	return p.Width, p.Height, p.MineCount
}

func (p GameParams) Seed() string {
	return fmt.Sprintf("%d:%d:%d", p.Width, p.Height, p.MineCount)
}

func ParseSeed(seed string) (*GameParams, error) {
	p := &GameParams{}
	sseed := strings.ReplaceAll(seed, ":", " ")
	n, err := fmt.Sscanf(sseed, "%d %d %d", &p.Width, &p.Height, &p.MineCount)
	if n != 3 || err != nil {
		return nil, fmt.Errorf(
			`invalid game params seed (sseed = "%s", n = %d, err = %w)`,
			sseed, n, err,
		)
	}
	return p, p.Validate()
}

// Validate checks the dimensions and that at least one cell is free of
// mines. Whether the mines fit around a given start is decided when the
// grid is generated.
func (p GameParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid board size %dx%d", p.Width, p.Height)
	}
	if p.Width > MaxWidth || p.Height > MaxHeight || p.Width*p.Height > MaxCells {
		return fmt.Errorf(
			"%w: %dx%d (at most %dx%d and %d cells)",
			ErrBoardTooLarge, p.Width, p.Height, MaxWidth, MaxHeight, MaxCells,
		)
	}
	if p.MineCount < 0 {
		return fmt.Errorf("invalid mine count %d", p.MineCount)
	}
	if p.MineCount >= p.Width*p.Height {
		return fmt.Errorf("%w: %d on %dx%d", ErrTooManyMines, p.MineCount, p.Width, p.Height)
	}
	return nil
}

func (p GameParams) InBounds(row, col int) bool {
	return 0 <= row && row < p.Height && 0 <= col && col < p.Width
}
