package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zefir/reakcja-go-backend/internal/game"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewClientRegistry(), nil)
}

func addClient(r *Registry, id string) *Client {
	c := NewClient(id, nil)
	r.clients.Add(c)
	return c
}

func defaultSettings() game.Settings {
	return game.Settings{Width: 6, Height: 6, MaxPlayers: 4}
}

func TestGenerateCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, ch := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, ch), "unexpected character %q in code %s", ch, code)
		}
	}
}

func TestCreateGame(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")

	sess, p, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)
	require.Len(t, sess.Code, codeLength)
	require.Equal(t, sess.Code, host.GameCode)
	require.Equal(t, 1, r.SessionCount())

	require.Equal(t, "host", p.ID)
	require.Equal(t, "alice", p.Name)
	require.True(t, p.IsHost)
	require.Equal(t, 0, p.Order)
	require.Equal(t, colorPalette[0], p.Color)
	require.False(t, sess.Started)
}

func TestCreateGameValidation(t *testing.T) {
	r := newTestRegistry()
	c := addClient(r, "c1")

	_, _, err := r.Create(c, "   ", defaultSettings())
	require.ErrorIs(t, err, ErrEmptyName)

	_, _, err = r.Create(c, "bob", game.Settings{Width: 1, Height: 6, MaxPlayers: 2})
	require.ErrorIs(t, err, ErrInvalidSettings)

	_, _, err = r.Create(c, "bob", game.Settings{Width: 6, Height: 6, MaxPlayers: 1})
	require.ErrorIs(t, err, ErrInvalidSettings)

	_, _, err = r.Create(c, "bob", game.Settings{Width: 6, Height: 6, MaxPlayers: len(colorPalette) + 1})
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestJoinGame(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	joiner := addClient(r, "joiner")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)

	p, err := r.Join(joiner, sess.Code, "bob")
	require.NoError(t, err)
	require.Equal(t, 1, p.Order)
	require.Equal(t, colorPalette[1], p.Color)
	require.False(t, p.IsHost)
	require.Equal(t, sess.Code, joiner.GameCode)
	require.Len(t, sess.Players, 2)
}

func TestJoinGameErrors(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")

	_, err := r.Join(addClient(r, "x1"), "ZZZZZZ", "bob")
	require.ErrorIs(t, err, ErrGameNotFound)

	sess, _, err := r.Create(host, "alice", game.Settings{Width: 6, Height: 6, MaxPlayers: 2})
	require.NoError(t, err)

	_, err = r.Join(addClient(r, "x2"), sess.Code, "  ")
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = r.Join(addClient(r, "x3"), sess.Code, "carol")
	require.NoError(t, err)

	_, err = r.Join(addClient(r, "x4"), sess.Code, "dave")
	require.ErrorIs(t, err, ErrGameFull)

	require.NoError(t, r.Start(host, sess.Code))
	_, err = r.Join(addClient(r, "x5"), sess.Code, "erin")
	require.ErrorIs(t, err, ErrGameStarted)
}

func TestStartGame(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	joiner := addClient(r, "joiner")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)

	require.ErrorIs(t, r.Start(host, "ZZZZZZ"), ErrGameNotFound)
	require.ErrorIs(t, r.Start(host, sess.Code), ErrInsufficientPlayers)

	_, err = r.Join(joiner, sess.Code, "bob")
	require.NoError(t, err)
	require.ErrorIs(t, r.Start(joiner, sess.Code), ErrNotHost)

	require.NoError(t, r.Start(host, sess.Code))
	require.True(t, sess.Started)
	require.NotNil(t, sess.State)
	require.Equal(t, "host", sess.State.CurrentPlayer.ID)
	require.Equal(t, 0, sess.State.MoveCount)

	require.ErrorIs(t, r.Start(host, sess.Code), ErrGameStarted)
}

func startedPair(t *testing.T) (*Registry, *Session, *Client, *Client) {
	t.Helper()
	r := newTestRegistry()
	host := addClient(r, "host")
	joiner := addClient(r, "joiner")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)
	_, err = r.Join(joiner, sess.Code, "bob")
	require.NoError(t, err)
	require.NoError(t, r.Start(host, sess.Code))
	return r, sess, host, joiner
}

func TestMoveValidation(t *testing.T) {
	r, sess, host, joiner := startedPair(t)

	require.ErrorIs(t, r.Move(host, "ZZZZZZ", 0, 0), ErrGameNotStarted)
	require.ErrorIs(t, r.Move(joiner, sess.Code, 0, 0), ErrNotYourTurn)
	require.ErrorIs(t, r.Move(host, sess.Code, -1, 0), ErrInvalidMove)
	require.ErrorIs(t, r.Move(host, sess.Code, 6, 0), ErrInvalidMove)

	require.NoError(t, r.Move(host, sess.Code, 0, 0))
	require.Equal(t, "joiner", sess.State.CurrentPlayer.ID)

	// Host's cell is off limits for the joiner.
	require.ErrorIs(t, r.Move(joiner, sess.Code, 0, 0), ErrInvalidMove)
	require.NoError(t, r.Move(joiner, sess.Code, 5, 5))
	require.Equal(t, 2, sess.State.MoveCount)
}

func TestMoveBeforeStart(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)

	require.ErrorIs(t, r.Move(host, sess.Code, 0, 0), ErrGameNotStarted)
}

func TestMoveAfterGameOver(t *testing.T) {
	r, sess, host, joiner := startedPair(t)

	// Skip past the elimination gate and engineer a capture that ends the
	// game.
	sess.State.MoveCount = 10
	sess.State.Grid[0][0] = game.Cell{Count: 1, Owner: "host"}
	sess.State.Grid[1][0] = game.Cell{Count: 1, Owner: "joiner"}
	sess.State.RecountCells()

	require.NoError(t, r.Move(host, sess.Code, 0, 0))
	require.True(t, sess.State.GameOver)
	require.Equal(t, "host", sess.State.Winner.ID)

	require.ErrorIs(t, r.Move(joiner, sess.Code, 5, 5), ErrGameNotStarted)
	require.ErrorIs(t, r.Move(host, sess.Code, 3, 3), ErrGameNotStarted)
}

func TestLeaveLobbyPromotesHost(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	second := addClient(r, "second")
	third := addClient(r, "third")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)
	_, err = r.Join(second, sess.Code, "bob")
	require.NoError(t, err)
	_, err = r.Join(third, sess.Code, "carol")
	require.NoError(t, err)

	r.Leave(host, sess.Code, false)

	require.Len(t, sess.Players, 2)
	require.Equal(t, "second", sess.Players[0].ID)
	require.True(t, sess.Players[0].IsHost)
	require.False(t, sess.Players[1].IsHost)
	require.Empty(t, host.GameCode)
}

func TestLeaveLastPlayerDeletesSession(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)
	require.Equal(t, 1, r.SessionCount())

	r.Leave(host, sess.Code, false)
	require.Equal(t, 0, r.SessionCount())

	_, err = r.Join(addClient(r, "late"), sess.Code, "dave")
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestLeaveDuringActiveGame(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	second := addClient(r, "second")
	third := addClient(r, "third")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)
	_, err = r.Join(second, sess.Code, "bob")
	require.NoError(t, err)
	_, err = r.Join(third, sess.Code, "carol")
	require.NoError(t, err)
	require.NoError(t, r.Start(host, sess.Code))

	require.NoError(t, r.Move(host, sess.Code, 0, 0))
	require.Equal(t, "second", sess.State.CurrentPlayer.ID)

	// The player whose turn it is quits mid-game.
	r.Leave(second, sess.Code, true)

	require.Len(t, sess.Players, 2)
	require.Len(t, sess.State.Players, 2)
	for x := range sess.State.Grid {
		for y := range sess.State.Grid[x] {
			require.NotEqual(t, "second", sess.State.Grid[x][y].Owner)
		}
	}
	require.NotEqual(t, "second", sess.State.CurrentPlayer.ID)

	// The game carries on for the remaining two.
	require.Equal(t, "third", sess.State.CurrentPlayer.ID)
	require.NoError(t, r.Move(third, sess.Code, 5, 5))
}

func TestDoubleLeaveIsHarmless(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	second := addClient(r, "second")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)
	_, err = r.Join(second, sess.Code, "bob")
	require.NoError(t, err)

	r.Leave(second, sess.Code, false)
	r.Leave(second, sess.Code, false)

	require.Len(t, sess.Players, 1)
	require.Equal(t, 1, r.SessionCount())
}

func TestUpdateName(t *testing.T) {
	r := newTestRegistry()
	host := addClient(r, "host")
	stranger := addClient(r, "stranger")

	sess, _, err := r.Create(host, "alice", defaultSettings())
	require.NoError(t, err)

	require.NoError(t, r.UpdateName(host, sess.Code, "alicia"))
	require.Equal(t, "alicia", sess.Players[0].Name)

	require.ErrorIs(t, r.UpdateName(host, sess.Code, "  "), ErrEmptyName)
	require.ErrorIs(t, r.UpdateName(stranger, sess.Code, "mallory"), ErrPlayerNotFound)
	require.ErrorIs(t, r.UpdateName(host, "ZZZZZZ", "zed"), ErrGameNotFound)
}
