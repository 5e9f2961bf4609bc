package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGamePhaseMethods(t *testing.T) {
	t.Run("IsWaiting returns true for a new game", func(t *testing.T) {
		// Given: a new game
		game := NewGame()

		// Then: it should wait for players with X to move
		assert.True(t, game.IsWaiting())
		assert.Equal(t, RoleFirst, game.Turn)
	})

	t.Run("Start moves a waiting game into play", func(t *testing.T) {
		// Given: a waiting game
		game := NewGame()

		// When: both seats are taken
		game.Start()

		// Then: the game should be in progress
		assert.True(t, game.IsInProgress())
	})

	t.Run("Start does not reopen a finished game", func(t *testing.T) {
		// Given: a finished game
		game := NewGame()
		game.Finish(VerdictDraw)

		// When: Start is called
		game.Start()

		// Then: it should stay finished
		assert.True(t, game.IsFinished())
		assert.Equal(t, VerdictDraw, game.Winner)
	})
}

func TestGame_Reset(t *testing.T) {
	t.Run("Reset with both players puts the game in progress", func(t *testing.T) {
		// Given: a finished game with marks on the board
		game := NewGame()
		game.Board = Board{MarkX, MarkX, MarkX, MarkO, MarkO, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
		game.Turn = RoleSecond
		game.Finish(VerdictX)

		// When: resetting with a complete registry
		game.Reset(true)

		// Then: the board is empty, X moves, the game is in progress
		require.Equal(t, Board{}, game.Board)
		assert.Equal(t, RoleFirst, game.Turn)
		assert.Equal(t, PhaseInProgress, game.Phase)
		assert.Equal(t, VerdictNone, game.Winner)
		assert.Equal(t, uint64(1), game.Generation)
	})

	t.Run("Reset without both players waits", func(t *testing.T) {
		// Given: an in-progress game
		game := NewGame()
		game.Start()

		// When: resetting with an incomplete registry
		game.Reset(false)

		// Then: the game waits for players
		assert.Equal(t, PhaseWaiting, game.Phase)
	})

	t.Run("Every reset bumps the generation", func(t *testing.T) {
		game := NewGame()

		game.Reset(true)
		game.Reset(false)
		game.Reset(true)

		assert.Equal(t, uint64(3), game.Generation)
	})
}

func TestGame_Cells(t *testing.T) {
	// Given: a board with two marks
	game := NewGame()
	game.Board[0] = MarkX
	game.Board[4] = MarkO

	// When: converting to wire cells
	cells := game.Cells()

	// Then: occupied cells carry the mark, empty cells are nil
	require.Len(t, cells, BoardSize)
	require.NotNil(t, cells[0])
	assert.Equal(t, "X", *cells[0])
	require.NotNil(t, cells[4])
	assert.Equal(t, "O", *cells[4])
	assert.Nil(t, cells[1])
	assert.Nil(t, cells[8])
}

func TestRole(t *testing.T) {
	assert.Equal(t, MarkX, RoleFirst.Mark())
	assert.Equal(t, MarkO, RoleSecond.Mark())
	assert.Equal(t, EmptyCell, RoleNone.Mark())

	assert.Equal(t, RoleSecond, RoleFirst.Opponent())
	assert.Equal(t, RoleFirst, RoleSecond.Opponent())

	assert.Equal(t, RoleFirst, RoleOfVerdict(VerdictX))
	assert.Equal(t, RoleSecond, RoleOfVerdict(VerdictO))
	assert.Equal(t, RoleNone, RoleOfVerdict(VerdictDraw))

	assert.Nil(t, MarkPtr(RoleNone))
	require.NotNil(t, MarkPtr(RoleSecond))
	assert.Equal(t, "O", *MarkPtr(RoleSecond))
}
