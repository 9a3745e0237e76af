// internal/game/engine.go
package game

import (
	"io"

	"github.com/google/uuid"
	"github.com/jason-s-yu/crazyeights/internal/models"
	"github.com/sirupsen/logrus"
)

// Engine is the rules engine. Reduce turns (state, action, isHost) into the next state and never
// blocks or performs I/O. An Engine is not safe for concurrent use; callers serialize access the
// same way they serialize access to the state it reduces.
type Engine struct {
	rng   Rand
	newID func() uuid.UUID
	log   logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the randomness source used for shuffles, bomb placement and random choices.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithIDGenerator overrides how card and round ids are minted.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithLogger sets the logger dropped actions are reported to at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine builds an engine with a time-seeded source and random UUIDs unless overridden.
func NewEngine(opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	e := &Engine{
		rng:   newTimeRand(),
		newID: uuid.New,
		log:   quiet,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reduce applies a to st. Unless isHost is set the input is returned unchanged, except that a
// guest observing leave(hostId) resets to an empty state. Any action whose preconditions fail is
// dropped and st is returned as-is; st itself is never modified.
func (e *Engine) Reduce(st models.GameState, a models.Action, isHost bool) models.GameState {
	if !isHost {
		if a.Type == models.ActionLeave && st.HostID != uuid.Nil && a.PlayerID == st.HostID {
			return models.NewGameState()
		}
		return st
	}
	next, _ := e.Apply(st, a)
	return next
}

// Apply is the host-side half of Reduce. It also reports whether the action was accepted, which
// the room manager uses to decide what to record.
func (e *Engine) Apply(st models.GameState, a models.Action) (models.GameState, bool) {
	if !a.Validate() {
		e.drop(a, "malformed action")
		return st, false
	}

	next := st.Clone()
	var ok bool
	switch a.Type {
	case models.ActionStartRound:
		ok = e.startRound(&next)
	case models.ActionUpdateSettings:
		ok = e.updateSettings(&next, *a.Settings)
	case models.ActionIntentDraw:
		ok = e.intentDraw(&next, a)
	case models.ActionIntentPlay:
		ok = e.intentPlay(&next, a)
	case models.ActionCallUno:
		ok = e.callUno(&next, a)
	case models.ActionBlindPlayRandom:
		ok = e.blindPlayRandom(&next, a)
	case models.ActionSwapHand:
		ok = e.swapHand(&next, a)
	case models.ActionLeave:
		ok = e.leave(&next, a)
	}
	if !ok {
		return st, false
	}
	return next, true
}

func (e *Engine) drop(a models.Action, reason string) bool {
	e.log.WithFields(logrus.Fields{
		"action": a.Type,
		"player": a.PlayerID,
	}).Debugf("dropping action: %s", reason)
	return false
}

func (e *Engine) startRound(st *models.GameState) bool {
	st.RoundID = e.newID()
	st.TurnIndex = 0
	st.Clockwise = true
	st.Started = true
	st.PendingDraw = 0
	st.ChosenWildColor = nil
	st.UnoCalled = map[uuid.UUID]bool{}
	st.ShotCallerTargetID = nil
	st.ShotCallerDemands = []models.ShotCallerDemand{}
	st.BombEvent = nil
	st.BlindedPlayerID = nil
	st.BlindedTurnsRemaining = 0
	st.PendingSwapPlayerID = nil
	st.WinnerID = nil
	st.ResultCredited = false

	deck := BuildDeck(st.Config, e.rng, e.newID)
	for i := range st.Players {
		st.Players[i].Hand = []models.Card{}
	}

	// Leading wild cards are skipped over and stay in the draw pile.
	st.DiscardPile = []models.Card{}
	for i, c := range deck {
		if c.Color != models.ColorWild {
			st.DiscardPile = append(st.DiscardPile, c)
			deck = append(deck[:i], deck[i+1:]...)
			break
		}
	}
	st.DrawPile = deck

	handSize := max(1, st.Config.StartingHandCount)
	for r := 0; r < handSize; r++ {
		for i := range st.Players {
			if len(st.DrawPile) == 0 {
				break
			}
			st.Players[i].Hand = append(st.Players[i].Hand, st.DrawPile[0])
			st.DrawPile = st.DrawPile[1:]
		}
	}

	e.randomizeBomb(st, uuid.Nil)
	return true
}

func (e *Engine) updateSettings(st *models.GameState, s models.Settings) bool {
	cfg := s.Normalized()
	if cfg.Version <= st.Config.Version {
		cfg.Version = st.Config.Version + 1
	}
	st.Config = cfg
	return true
}

// isTurnOf reports whether the round is live and it is pid's turn.
func isTurnOf(st *models.GameState, pid uuid.UUID) bool {
	if !st.Started || st.WinnerID != nil {
		return false
	}
	cur := st.CurrentPlayer()
	return cur != nil && cur.ID == pid
}

func swapPending(st *models.GameState, pid uuid.UUID) bool {
	return st.PendingSwapPlayerID != nil && *st.PendingSwapPlayerID == pid
}

func (e *Engine) intentDraw(st *models.GameState, a models.Action) bool {
	pid := a.PlayerID
	if !isTurnOf(st, pid) {
		return e.drop(a, "not this player's turn")
	}
	if st.IsBlinded(pid) {
		return e.drop(a, "blinded players cannot draw")
	}
	if swapPending(st, pid) {
		return e.drop(a, "hand swap pending")
	}
	idx := st.TurnIndex

	if st.ShotCallerTargetID != nil && *st.ShotCallerTargetID == pid && st.PendingDraw == 0 {
		if hasPlayableCard(st, &st.Players[idx]) {
			return e.drop(a, "shot-caller target holds a legal card")
		}
		if !e.drawCard(st, idx) {
			e.endTurn(st, 0, true)
		}
		return true
	}

	if st.PendingDraw > 0 {
		st.PendingDraw--
		e.drawCard(st, idx)
		if st.PendingDraw > 0 {
			return true
		}
	} else {
		e.drawCard(st, idx)
	}
	e.endTurn(st, 0, false)
	return true
}

func (e *Engine) intentPlay(st *models.GameState, a models.Action) bool {
	return e.play(st, a, a.CardID)
}

// play resolves one card from the current player's hand. Blinded players may attempt illegal
// cards; the attempt then becomes a forced draw and the card stays in hand.
func (e *Engine) play(st *models.GameState, a models.Action, cardID uuid.UUID) bool {
	pid := a.PlayerID
	if !isTurnOf(st, pid) {
		return e.drop(a, "not this player's turn")
	}
	if swapPending(st, pid) {
		return e.drop(a, "hand swap pending")
	}
	idx := st.TurnIndex
	pos := -1
	for i, c := range st.Players[idx].Hand {
		if c.ID == cardID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return e.drop(a, "card not in hand")
	}
	card := st.Players[idx].Hand[pos]
	blinded := st.IsBlinded(pid)
	legal := CanPlay(st, card)
	if !legal && !blinded {
		return e.drop(a, "illegal card")
	}

	// Resolve every choice before touching the state so a rejection leaves nothing behind.
	var target *uuid.UUID
	needsShotTarget := card.Value.IsWildFamily() && st.Config.ShotCallerEnabled
	needsFogTarget := card.Value.Kind == models.KindFog && st.Config.FogEnabled
	if legal && (needsShotTarget || needsFogTarget) {
		if blinded {
			target = e.randomOpponent(st, pid)
		} else {
			target = resolveTarget(st, a.TargetID, pid)
			if target == nil {
				return e.drop(a, "card needs a target")
			}
		}
	}
	var color models.Color
	if legal && card.Value.IsWildFamily() {
		if blinded {
			color = e.randomColor()
		} else {
			if a.ChosenColor == nil || !a.ChosenColor.IsPlayable() {
				return e.drop(a, "wild card needs a color")
			}
			color = *a.ChosenColor
		}
	}

	if !legal {
		e.forcedDraw(st, idx)
		e.endTurn(st, 0, false)
		return true
	}

	hand := st.Players[idx].Hand
	st.Players[idx].Hand = append(hand[:pos:pos], hand[pos+1:]...)
	st.DiscardPile = append(st.DiscardPile, card)

	skips := 0
	winners := []uuid.UUID{pid}

	switch card.Value.Kind {
	case models.KindReverse:
		st.Clockwise = !st.Clockwise
		if len(st.Players) == 2 {
			skips++
		}
		st.ChosenWildColor = nil
	case models.KindSkip:
		skips++
		st.ChosenWildColor = nil
	case models.KindDraw2:
		st.PendingDraw += 2
		st.ChosenWildColor = nil
	case models.KindWild, models.KindWildDraw4:
		if card.Value.Kind == models.KindWildDraw4 {
			st.PendingDraw += 4
		}
		st.ChosenWildColor = &color
		if st.Config.ShotCallerEnabled && target != nil {
			addDemand(st, *target, color)
		}
	case models.KindFog:
		if st.Config.FogEnabled && target != nil {
			blind(st, *target, max(1, st.Config.FogBlindTurns))
		}
		c := e.randomColor()
		st.ChosenWildColor = &c
	case models.KindNumber:
		st.ChosenWildColor = nil
		if !st.Config.AllowSevenZeroRule {
			break
		}
		switch card.Value.Number {
		case 0:
			rotateHands(st)
		case 7:
			if len(st.Players) < 2 {
				break
			}
			if blinded {
				other := e.randomOpponent(st, pid)
				swapHands(st, idx, st.PlayerIndex(*other))
				winners = append(winners, *other)
			} else {
				id := pid
				st.PendingSwapPlayerID = &id
			}
		}
	}

	if e.isBomb(st, card) {
		e.detonate(st, idx, card)
		skips++
	}

	if st.PendingSwapPlayerID != nil {
		return true
	}
	if declareIfEmpty(st, winners...) {
		return true
	}
	e.endTurn(st, skips, true)
	return true
}

func (e *Engine) callUno(st *models.GameState, a models.Action) bool {
	if !st.HasPlayer(a.PlayerID) {
		return e.drop(a, "unknown player")
	}
	st.UnoCalled[a.PlayerID] = true
	return true
}

func (e *Engine) blindPlayRandom(st *models.GameState, a models.Action) bool {
	pid := a.PlayerID
	if !isTurnOf(st, pid) || !st.IsBlinded(pid) {
		return e.drop(a, "only the blinded current player may play blind")
	}
	if swapPending(st, pid) {
		return e.drop(a, "hand swap pending")
	}
	idx := st.TurnIndex
	hand := st.Players[idx].Hand
	if len(hand) == 0 {
		e.drawCard(st, idx)
		e.endTurn(st, 0, false)
		return true
	}
	pick := hand[e.rng.Intn(len(hand))]
	return e.play(st, models.Action{Type: models.ActionIntentPlay, PlayerID: pid}, pick.ID)
}

func (e *Engine) swapHand(st *models.GameState, a models.Action) bool {
	pid := a.PlayerID
	if !isTurnOf(st, pid) || !swapPending(st, pid) {
		return e.drop(a, "no hand swap pending")
	}
	top := st.TopDiscard()
	if top == nil || !top.Value.IsNumber(7) {
		return e.drop(a, "top card is not a seven")
	}
	tIdx := st.PlayerIndex(*a.TargetID)
	if tIdx < 0 || *a.TargetID == pid {
		return e.drop(a, "invalid swap target")
	}

	swapHands(st, st.TurnIndex, tIdx)
	st.PendingSwapPlayerID = nil
	if declareIfEmpty(st, pid, *a.TargetID) {
		return true
	}
	e.endTurn(st, 0, true)
	return true
}

func (e *Engine) leave(st *models.GameState, a models.Action) bool {
	pid := a.PlayerID
	idx := st.PlayerIndex(pid)
	if idx < 0 {
		return e.drop(a, "unknown player")
	}
	wasStarted := st.Started

	// The leaver's cards go under the draw pile so the round keeps its full deck.
	st.DrawPile = append(st.DrawPile, st.Players[idx].Hand...)
	st.Players = append(st.Players[:idx:idx], st.Players[idx+1:]...)
	delete(st.UnoCalled, pid)
	if st.BlindedPlayerID != nil && *st.BlindedPlayerID == pid {
		st.BlindedPlayerID = nil
		st.BlindedTurnsRemaining = 0
	}
	if swapPending(st, pid) {
		st.PendingSwapPlayerID = nil
	}
	dropDemands(st, pid)

	if len(st.Players) == 0 {
		*st = models.NewGameState()
		return true
	}
	if st.HostID == pid {
		st.HostID = st.Players[0].ID
	}
	adjustIndexAfterRemoval(st, idx)

	if wasStarted && len(st.Players) == 1 {
		e.startRound(st)
	}
	return true
}

// Seat adds a player who joins while a round is running and deals them a starting hand from the
// draw pile. Players already seated are left alone.
func (e *Engine) Seat(st models.GameState, p models.PlayerSnapshot) models.GameState {
	if st.HasPlayer(p.ID) {
		return st
	}
	next := st.Clone()
	next.Players = append(next.Players, models.Player{ID: p.ID, Name: p.Name, Hand: []models.Card{}})
	if next.Started {
		idx := len(next.Players) - 1
		for i := 0; i < max(1, next.Config.StartingHandCount); i++ {
			if !e.drawCard(&next, idx) {
				break
			}
		}
	}
	return next
}

// endTurn advances past the finishing player, ticks their blindness and optionally pops the
// front of their shot-caller queue.
func (e *Engine) endTurn(st *models.GameState, skips int, popFinishing bool) {
	finishing := st.Players[st.TurnIndex].ID
	advanceTurn(st, skips)
	tickBlind(st, finishing)
	if popFinishing {
		popDemand(st, finishing)
	}
}

// drawCard moves the top of the draw pile into the hand of the player at idx, recycling the
// discard pile when the draw pile is exhausted. It reports whether a card was drawn.
func (e *Engine) drawCard(st *models.GameState, idx int) bool {
	if len(st.DrawPile) == 0 {
		e.recycleDiscard(st)
	}
	if len(st.DrawPile) == 0 {
		return false
	}
	st.Players[idx].Hand = append(st.Players[idx].Hand, st.DrawPile[0])
	st.DrawPile = st.DrawPile[1:]
	return true
}

// forcedDraw pays the whole pending debt at once, or draws a single card when nothing is owed.
func (e *Engine) forcedDraw(st *models.GameState, idx int) {
	n := 1
	if st.PendingDraw > 0 {
		n = st.PendingDraw
		st.PendingDraw = 0
	}
	for i := 0; i < n; i++ {
		if !e.drawCard(st, idx) {
			return
		}
	}
}

// recycleDiscard shuffles every discard but the top back into the draw pile.
func (e *Engine) recycleDiscard(st *models.GameState) {
	n := len(st.DiscardPile)
	if n <= 1 {
		return
	}
	rest := append([]models.Card(nil), st.DiscardPile[:n-1]...)
	e.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	st.DrawPile = append(st.DrawPile, rest...)
	st.DiscardPile = []models.Card{st.DiscardPile[n-1]}
}

func (e *Engine) isBomb(st *models.GameState, card models.Card) bool {
	if !st.Config.BombEnabled {
		return false
	}
	if st.BombCardID != nil && *st.BombCardID == card.ID {
		return true
	}
	return st.Config.DebugAllBombs && card.Value.Kind == models.KindNumber
}

// detonate makes every other player draw, reverses direction and hides a new bomb. The caller
// adds the extra skip.
func (e *Engine) detonate(st *models.GameState, triggerIdx int, card models.Card) {
	n := max(1, st.Config.BombDrawCount)
	victims := make([]uuid.UUID, 0, len(st.Players)-1)
	for i := range st.Players {
		if i == triggerIdx {
			continue
		}
		for k := 0; k < n; k++ {
			if !e.drawCard(st, i) {
				break
			}
		}
		victims = append(victims, st.Players[i].ID)
	}
	st.Clockwise = !st.Clockwise
	st.BombEvent = &models.BombEvent{
		TriggerID: st.Players[triggerIdx].ID,
		VictimIDs: victims,
		CardID:    card.ID,
	}
	e.randomizeBomb(st, card.ID)
}

// randomizeBomb hides the bomb under a random card in play, never under exclude.
func (e *Engine) randomizeBomb(st *models.GameState, exclude uuid.UUID) {
	if !st.Config.BombEnabled {
		st.BombCardID = nil
		return
	}
	pool := make([]uuid.UUID, 0, st.CardCount())
	collect := func(cards []models.Card) {
		for _, c := range cards {
			if c.ID != exclude {
				pool = append(pool, c.ID)
			}
		}
	}
	collect(st.DrawPile)
	for _, p := range st.Players {
		collect(p.Hand)
	}
	collect(st.DiscardPile)
	if len(pool) == 0 {
		st.BombCardID = nil
		return
	}
	id := pool[e.rng.Intn(len(pool))]
	st.BombCardID = &id
}

func (e *Engine) randomColor() models.Color {
	return models.PlayableColors[e.rng.Intn(len(models.PlayableColors))]
}

func (e *Engine) randomOpponent(st *models.GameState, pid uuid.UUID) *uuid.UUID {
	others := make([]uuid.UUID, 0, len(st.Players))
	for _, p := range st.Players {
		if p.ID != pid {
			others = append(others, p.ID)
		}
	}
	if len(others) == 0 {
		return nil
	}
	id := others[e.rng.Intn(len(others))]
	return &id
}

// resolveTarget returns the requested target if it is seated and not the caller.
func resolveTarget(st *models.GameState, requested *uuid.UUID, pid uuid.UUID) *uuid.UUID {
	if requested == nil || *requested == pid || !st.HasPlayer(*requested) {
		return nil
	}
	id := *requested
	return &id
}

// blind starts or extends the fog-of-war timer on target.
func blind(st *models.GameState, target uuid.UUID, turns int) {
	if st.BlindedPlayerID != nil && *st.BlindedPlayerID == target {
		st.BlindedTurnsRemaining += turns
		return
	}
	id := target
	st.BlindedPlayerID = &id
	st.BlindedTurnsRemaining = turns
}

func tickBlind(st *models.GameState, pid uuid.UUID) {
	if st.BlindedPlayerID == nil || *st.BlindedPlayerID != pid || st.BlindedTurnsRemaining <= 0 {
		return
	}
	st.BlindedTurnsRemaining--
	if st.BlindedTurnsRemaining == 0 {
		st.BlindedPlayerID = nil
	}
}

// rotateHands passes every hand one seat along the player array, ignoring play direction.
func rotateHands(st *models.GameState) {
	n := len(st.Players)
	if n < 2 {
		return
	}
	hands := make([][]models.Card, n)
	for i, p := range st.Players {
		hands[i] = p.Hand
	}
	for i := range hands {
		st.Players[(i+1)%n].Hand = hands[i]
	}
}

func swapHands(st *models.GameState, i, j int) {
	st.Players[i].Hand, st.Players[j].Hand = st.Players[j].Hand, st.Players[i].Hand
}

// declareIfEmpty ends the round for the first candidate holding no cards.
func declareIfEmpty(st *models.GameState, candidates ...uuid.UUID) bool {
	for _, id := range candidates {
		i := st.PlayerIndex(id)
		if i < 0 || len(st.Players[i].Hand) != 0 {
			continue
		}
		winner := id
		st.WinnerID = &winner
		st.ResultCredited = true
		st.PendingDraw = 0
		st.UnoCalled = map[uuid.UUID]bool{}
		st.Started = false
		return true
	}
	return false
}
