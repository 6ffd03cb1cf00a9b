package mines

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
)

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

/*
newGrid places MineCount mines uniformly at random. None of them is at
the starting cell, and when the board has room none is within one square
of it either, so the first opening always shows a zero.
*/
func (p GameParams) newGrid(startRow, startCol int, r *rand.Rand) ([]bool, error) {
	width, height, mineCount := p.Unpack()
	grid := make([]bool, width*height)

	candidates := make([]int, 0, width*height)
	for row := range height {
		for col := range width {
			if absDiff(startRow, row) > 1 || absDiff(startCol, col) > 1 {
				candidates = append(candidates, row*width+col)
			}
		}
	}
	if len(candidates) < mineCount {
		Log.WithFields(logrus.Fields{
			"params": p.Seed(),
			"row":    startRow,
			"col":    startCol,
		}).Debug("no room around start, only keeping the start cell free")

		candidates = candidates[:0]
		for i := range width * height {
			if i != startRow*width+startCol {
				candidates = append(candidates, i)
			}
		}
	}
	if len(candidates) < mineCount {
		return nil, ErrTooManyMines
	}

	/*
	 * Now pick n off the list at random.
	 */
	k := len(candidates)
	for range mineCount {
		i := r.IntN(k)
		grid[candidates[i]] = true
		k--
		candidates[i] = candidates[k]
	}
	return grid, nil
}
