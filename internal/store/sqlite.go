package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lox/pokerhud/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS hands (
	id INTEGER PRIMARY KEY,
	ts INTEGER NOT NULL,
	seat_players TEXT NOT NULL,
	winners TEXT NOT NULL,
	small_blind INTEGER NOT NULL,
	big_blind INTEGER NOT NULL,
	session_id TEXT NOT NULL DEFAULT '',
	battle_type INTEGER NOT NULL DEFAULT 0,
	session_name TEXT NOT NULL DEFAULT '',
	results TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hands_ts ON hands(ts);

CREATE TABLE IF NOT EXISTS hand_players (
	hand_id INTEGER NOT NULL,
	player_id INTEGER NOT NULL,
	PRIMARY KEY (hand_id, player_id)
);
CREATE INDEX IF NOT EXISTS idx_hand_players_player ON hand_players(player_id);

CREATE TABLE IF NOT EXISTS phases (
	hand_id INTEGER NOT NULL,
	phase INTEGER NOT NULL,
	player_ids TEXT NOT NULL,
	community_cards TEXT NOT NULL,
	PRIMARY KEY (hand_id, phase)
);

CREATE TABLE IF NOT EXISTS phase_players (
	hand_id INTEGER NOT NULL,
	phase INTEGER NOT NULL,
	player_id INTEGER NOT NULL,
	PRIMARY KEY (hand_id, phase, player_id)
);
CREATE INDEX IF NOT EXISTS idx_phase_players_player ON phase_players(player_id);

CREATE TABLE IF NOT EXISTS actions (
	hand_id INTEGER NOT NULL,
	idx INTEGER NOT NULL,
	player_id INTEGER NOT NULL,
	phase INTEGER NOT NULL,
	action_type INTEGER NOT NULL,
	bet_chips INTEGER NOT NULL,
	pot INTEGER NOT NULL,
	side_pots TEXT NOT NULL,
	position INTEGER NOT NULL,
	tags TEXT NOT NULL,
	PRIMARY KEY (hand_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_actions_player ON actions(player_id);
`

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLite persists entities in a sqlite database via the modernc driver.
type SQLite struct {
	db *sql.DB
	q  querier
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db, q: db}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func (s *SQLite) PutHand(ctx context.Context, hand *entity.Hand) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT OR REPLACE INTO hands
		 (id, ts, seat_players, winners, small_blind, big_blind, session_id, battle_type, session_name, results)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hand.ID, hand.Timestamp, mustJSON(hand.SeatPlayers), mustJSON(hand.Winners),
		hand.SmallBlind, hand.BigBlind,
		hand.Session.ID, hand.Session.BattleType, hand.Session.Name,
		mustJSON(hand.Results))
	if err != nil {
		return Classify(err)
	}
	for _, playerID := range hand.SeatPlayers {
		if playerID == entity.EmptySeat {
			continue
		}
		if _, err := s.q.ExecContext(ctx,
			`INSERT OR REPLACE INTO hand_players (hand_id, player_id) VALUES (?, ?)`,
			hand.ID, playerID); err != nil {
			return Classify(err)
		}
	}
	return nil
}

func (s *SQLite) PutHands(ctx context.Context, hands []entity.Hand) error {
	for i := range hands {
		if err := s.PutHand(ctx, &hands[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) PutPhases(ctx context.Context, phases []entity.PhaseRecord) error {
	for i := range phases {
		p := &phases[i]
		if _, err := s.q.ExecContext(ctx,
			`INSERT OR REPLACE INTO phases (hand_id, phase, player_ids, community_cards)
			 VALUES (?, ?, ?, ?)`,
			p.HandID, int(p.Phase), mustJSON(p.PlayerIDs), mustJSON(p.CommunityCards)); err != nil {
			return Classify(err)
		}
		for _, playerID := range p.PlayerIDs {
			if _, err := s.q.ExecContext(ctx,
				`INSERT OR REPLACE INTO phase_players (hand_id, phase, player_id) VALUES (?, ?, ?)`,
				p.HandID, int(p.Phase), playerID); err != nil {
				return Classify(err)
			}
		}
	}
	return nil
}

func (s *SQLite) PutActions(ctx context.Context, actions []entity.Action) error {
	for i := range actions {
		a := &actions[i]
		if _, err := s.q.ExecContext(ctx,
			`INSERT OR REPLACE INTO actions
			 (hand_id, idx, player_id, phase, action_type, bet_chips, pot, side_pots, position, tags)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.HandID, a.Index, a.PlayerID, int(a.Phase), int(a.Type),
			a.BetChips, a.Pot, mustJSON(a.SidePots), int(a.Position), mustJSON(a.Tags)); err != nil {
			return Classify(err)
		}
	}
	return nil
}

func (s *SQLite) scanHands(rows *sql.Rows) ([]entity.Hand, error) {
	defer rows.Close()
	var hands []entity.Hand
	for rows.Next() {
		var h entity.Hand
		var seatPlayers, winners, results string
		if err := rows.Scan(&h.ID, &h.Timestamp, &seatPlayers, &winners,
			&h.SmallBlind, &h.BigBlind,
			&h.Session.ID, &h.Session.BattleType, &h.Session.Name, &results); err != nil {
			return nil, Classify(err)
		}
		_ = json.Unmarshal([]byte(seatPlayers), &h.SeatPlayers)
		_ = json.Unmarshal([]byte(winners), &h.Winners)
		_ = json.Unmarshal([]byte(results), &h.Results)
		hands = append(hands, h)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}
	return hands, nil
}

const handColumns = `h.id, h.ts, h.seat_players, h.winners, h.small_blind, h.big_blind,
	h.session_id, h.battle_type, h.session_name, h.results`

func (s *SQLite) HandsByPlayer(ctx context.Context, playerID int64) ([]entity.Hand, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+handColumns+` FROM hands h
		 JOIN hand_players hp ON hp.hand_id = h.id
		 WHERE hp.player_id = ? ORDER BY h.id`, playerID)
	if err != nil {
		return nil, Classify(err)
	}
	return s.scanHands(rows)
}

func (s *SQLite) HandsBetween(ctx context.Context, from, to int64) ([]entity.Hand, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+handColumns+` FROM hands h
		 WHERE h.ts >= ? AND h.ts <= ? ORDER BY h.id`, from, to)
	if err != nil {
		return nil, Classify(err)
	}
	return s.scanHands(rows)
}

func (s *SQLite) ActionsByPlayer(ctx context.Context, playerID int64) ([]entity.Action, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT hand_id, idx, player_id, phase, action_type, bet_chips, pot, side_pots, position, tags
		 FROM actions WHERE player_id = ? ORDER BY hand_id, idx`, playerID)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()
	var actions []entity.Action
	for rows.Next() {
		var a entity.Action
		var phase, actionType, position int
		var sidePots, tags string
		if err := rows.Scan(&a.HandID, &a.Index, &a.PlayerID, &phase, &actionType,
			&a.BetChips, &a.Pot, &sidePots, &position, &tags); err != nil {
			return nil, Classify(err)
		}
		a.Phase = entity.Phase(phase)
		a.Type = entity.ActionType(actionType)
		a.Position = entity.Position(position)
		_ = json.Unmarshal([]byte(sidePots), &a.SidePots)
		_ = json.Unmarshal([]byte(tags), &a.Tags)
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}
	return actions, nil
}

func (s *SQLite) PhasesByPlayer(ctx context.Context, playerID int64) ([]entity.PhaseRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT p.hand_id, p.phase, p.player_ids, p.community_cards
		 FROM phases p
		 JOIN phase_players pp ON pp.hand_id = p.hand_id AND pp.phase = p.phase
		 WHERE pp.player_id = ? ORDER BY p.hand_id, p.phase`, playerID)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()
	var phases []entity.PhaseRecord
	for rows.Next() {
		var p entity.PhaseRecord
		var phase int
		var playerIDs, community string
		if err := rows.Scan(&p.HandID, &phase, &playerIDs, &community); err != nil {
			return nil, Classify(err)
		}
		p.Phase = entity.Phase(phase)
		_ = json.Unmarshal([]byte(playerIDs), &p.PlayerIDs)
		_ = json.Unmarshal([]byte(community), &p.CommunityCards)
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}
	return phases, nil
}

// WithTx runs fn against a transaction-bound store. ReadWrite spans the
// hands, phases and actions tables atomically.
func (s *SQLite) WithTx(ctx context.Context, mode TxMode, fn func(tx Store) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: mode == ReadOnly})
	if err != nil {
		return Classify(err)
	}
	bound := &SQLite{db: s.db, q: tx}
	if err := fn(bound); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return Classify(err)
	}
	return nil
}
