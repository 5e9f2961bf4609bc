package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-coordinator/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
)

// WinCombos lists rows, then columns, then diagonals. The order decides
// which triple is reported when several are complete.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// ApplyMove - validates a move by role at cell and applies it to the game.
// A rejected move leaves the game untouched.
func ApplyMove(gameInstance *entity.Game, role entity.Role, cell int) error {
	if err := validateMove(gameInstance, role, cell); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	gameInstance.Board[cell] = role.Mark()
	gameInstance.Turn = role.Opponent()

	if verdict := EvaluateWinner(gameInstance.Board); verdict != entity.VerdictNone {
		gameInstance.Finish(verdict)
	}

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(gameInstance *entity.Game, role entity.Role, cell int) error {
	if !gameInstance.IsInProgress() {
		return apperror.ErrGameNotInProgress
	}

	if gameInstance.Turn != role {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= entity.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, cell)
	}

	if gameInstance.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// EvaluateWinner - returns the winning mark, a draw, or none if play goes on.
func EvaluateWinner(board entity.Board) entity.Verdict {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return entity.Verdict(a)
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return entity.VerdictNone
		}
	}

	return entity.VerdictDraw
}
