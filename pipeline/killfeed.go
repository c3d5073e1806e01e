package pipeline

import (
	"context"
	"fmt"

	"github.com/wkalt/prdemo/analyzer"
	"github.com/wkalt/prdemo/codec"
	"github.com/wkalt/prdemo/messages"
)

// KillEntry is one line of the kill feed.
type KillEntry struct {
	Offset   int
	Attacker string
	Victim   string
	Weapon   string
}

func (k KillEntry) String() string {
	return fmt.Sprintf("%s [%s] %s", k.Attacker, k.Weapon, k.Victim)
}

type killFeed struct {
	p     *Pipeline
	names map[uint8]string
}

// KillFeed registers an analyzer that resolves the player ids of kill
// messages to names seen in earlier player_add messages, and emits a
// KillEntry per kill. Names are forgotten at the end of each file. Kill
// messages cut short by truncation are dropped.
func (p *Pipeline) KillFeed() (*analyzer.Analyzer, error) {
	kf := &killFeed{p: p, names: make(map[uint8]string)}
	return p.Handle("killfeed", kf.handle,
		analyzer.Emits(EventKill),
		analyzer.Listens(p.Dispatcher, messages.PlayerAdd.String()),
		analyzer.Listens(p.Dispatcher, messages.Kill.String()),
		analyzer.Listens(p.Opener, EventEndOfFile),
	)
}

func (kf *killFeed) handle(_ context.Context, data any, origin analyzer.Event) (analyzer.Result, error) {
	if origin == kf.p.Opener.Event(EventEndOfFile) {
		clear(kf.names)
		return analyzer.None(), nil
	}
	msg, ok := data.(Message)
	if !ok {
		return analyzer.None(), unexpected(data)
	}
	decoded, err := kf.p.Decode(msg)
	if err != nil {
		return analyzer.None(), err
	}
	switch msg.Type {
	case messages.PlayerAdd:
		players, _ := decoded.Value.([]codec.Record)
		for _, player := range players {
			id, ok := player["id"].(uint8)
			if !ok {
				continue
			}
			if ign, ok := player["ign"].(string); ok {
				kf.names[id] = ign
			}
		}
		return analyzer.None(), nil
	case messages.Kill:
		rec, _ := decoded.Value.(codec.Record)
		attacker, ok1 := rec["attacker"].(uint8)
		victim, ok2 := rec["victim"].(uint8)
		weapon, ok3 := rec["weapon"].(string)
		if !ok1 || !ok2 || !ok3 {
			return analyzer.None(), nil
		}
		return analyzer.One(KillEntry{
			Offset:   decoded.Offset,
			Attacker: kf.name(attacker),
			Victim:   kf.name(victim),
			Weapon:   weapon,
		}, EventKill), nil
	default:
		return analyzer.None(), nil
	}
}

func (kf *killFeed) name(id uint8) string {
	if name, ok := kf.names[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}
