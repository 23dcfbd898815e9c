package internal

// Broadcast fan-out. Every helper assumes the caller holds the session
// lock: views are personalized per recipient (isHost, isMyTurn), so the
// roster and state must not move underneath the marshalling.

// notifyAllLocked sends the same message to every player in the roster.
func (r *Registry) notifyAllLocked(sess *Session, msgType string, data any) {
	for _, p := range sess.Players {
		r.clients.send(p.ID, msgType, data)
	}
}

// broadcastLobbyLocked pushes the roster to everyone, flagging for each
// recipient whether they are the host.
func (r *Registry) broadcastLobbyLocked(sess *Session) {
	for _, p := range sess.Players {
		r.clients.send(p.ID, MsgLobbyUpdate, lobbyData{
			Players:  sess.Players,
			IsHost:   p.IsHost,
			Settings: sess.Settings,
		})
	}
}

// broadcastStateLocked pushes the game state to everyone, flagging for
// each recipient whether the turn is theirs.
func (r *Registry) broadcastStateLocked(sess *Session) {
	if sess.State == nil {
		return
	}
	for _, p := range sess.Players {
		r.clients.send(p.ID, MsgGameState, stateView{
			State:    sess.State,
			IsMyTurn: sess.State.CurrentPlayer != nil && sess.State.CurrentPlayer.ID == p.ID,
		})
	}
}
