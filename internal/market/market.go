// Package market defines the core domain vocabulary shared by every other
// package: the sport/discipline taxonomy, and the Offer/Outcome shapes a
// Gambler adapter produces.
package market

import (
	"fmt"
	"hash/fnv"
)

// Game is a closed enumeration of supported disciplines.
type Game string

// Supported disciplines. Values persist as plain text in audit records, so
// this is a string enum rather than an iota-backed one.
const (
	GameCounterStrike     Game = "counter_strike"
	GameCrossFire         Game = "cross_fire"
	GameDota2             Game = "dota2"
	GameGearsOfWar        Game = "gears_of_war"
	GameHalo              Game = "halo"
	GameHearthstone       Game = "hearthstone"
	GameHeroesOfTheStorm  Game = "heroes_of_the_storm"
	GameLeagueOfLegends   Game = "league_of_legends"
	GameOverwatch         Game = "overwatch"
	GameSmite             Game = "smite"
	GameStarCraft2        Game = "starcraft2"
	GameVainglory         Game = "vainglory"
	GameWorldOfTanks      Game = "world_of_tanks"
	GameFifa              Game = "fifa"
	GameFootball          Game = "football"
	GameTennis            Game = "tennis"
	GameBasketball        Game = "basketball"
	GameIceHockey         Game = "ice_hockey"
	GameVolleyball        Game = "volleyball"
	GameTableTennis       Game = "table_tennis"
	GameHandball          Game = "handball"
	GameBadminton         Game = "badminton"
	GameBaseball          Game = "baseball"
	GameSnooker           Game = "snooker"
	GamePool              Game = "pool"
	GameFutsal            Game = "futsal"
	GameWaterPolo         Game = "water_polo"
	GameRugby             Game = "rugby"
	GameChess             Game = "chess"
	GameBoxing            Game = "boxing"
	GameAmericanFootball  Game = "american_football"
	GameBandy             Game = "bandy"
	GameMotorsport        Game = "motorsport"
	GameBiathlon          Game = "biathlon"
	GameDarts             Game = "darts"
	GameAlpineSkiing      Game = "alpine_skiing"
	GameSkiJumping        Game = "ski_jumping"
	GameSkiing            Game = "skiing"
	GameFormula           Game = "formula"
	GameFieldHockey       Game = "field_hockey"
	GameMotorbikes        Game = "motorbikes"
	GameBowls             Game = "bowls"
	GameBicycleRacing     Game = "bicycle_racing"
	GamePoker             Game = "poker"
	GameGolf              Game = "golf"
	GameCurling           Game = "curling"
	GameNetball           Game = "netball"
	GameMartialArts       Game = "martial_arts"
	GameCricket           Game = "cricket"
	GameFloorball         Game = "floorball"
	GameGaelicFootball    Game = "gaelic_football"
	GameHorseRacing       Game = "horse_racing"
	GameHurling           Game = "hurling"
)

var validGames = buildValidGames()

func buildValidGames() map[Game]struct{} {
	all := []Game{
		GameCounterStrike, GameCrossFire, GameDota2, GameGearsOfWar, GameHalo, GameHearthstone,
		GameHeroesOfTheStorm, GameLeagueOfLegends, GameOverwatch, GameSmite, GameStarCraft2,
		GameVainglory, GameWorldOfTanks, GameFifa, GameFootball, GameTennis, GameBasketball,
		GameIceHockey, GameVolleyball, GameTableTennis, GameHandball, GameBadminton, GameBaseball,
		GameSnooker, GamePool, GameFutsal, GameWaterPolo, GameRugby, GameChess, GameBoxing,
		GameAmericanFootball, GameBandy, GameMotorsport, GameBiathlon, GameDarts, GameAlpineSkiing,
		GameSkiJumping, GameSkiing, GameFormula, GameFieldHockey, GameMotorbikes, GameBowls,
		GameBicycleRacing, GamePoker, GameGolf, GameCurling, GameNetball, GameMartialArts,
		GameCricket, GameFloorball, GameGaelicFootball, GameHorseRacing, GameHurling,
	}
	m := make(map[Game]struct{}, len(all))
	for _, g := range all {
		m[g] = struct{}{}
	}
	return m
}

// Valid reports whether g is a member of the closed Game enumeration.
func (g Game) Valid() bool {
	_, ok := validGames[g]
	return ok
}

// Kind is a closed enumeration of market kinds.
type Kind string

// Series is currently the only supported Kind.
const Series Kind = "series"

// DRAW is the sentinel outcome title denoting a tied result.
const DRAW = "(draw)"

// Outcome is a selectable result within an Offer.
type Outcome struct {
	Title string
	Coef  float64
}

// IsDraw reports whether this outcome is the draw sentinel.
func (o Outcome) IsDraw() bool {
	return o.Title == DRAW
}

// Equal is structural equality on both fields.
func (o Outcome) Equal(other Outcome) bool {
	return o.Title == other.Title && o.Coef == other.Coef
}

// OID identifies an Offer within its originating source.
type OID uint64

// Offer is a single bookmaker's advertised market: an event plus its list of
// outcome coefficients. Outcomes must number between 1 and 3 inclusive, and
// the DRAW sentinel may appear at most once.
type Offer struct {
	OID      OID
	Date     uint32 // unix seconds
	Game     Game
	Kind     Kind
	Outcomes []Outcome
}

// Valid checks the structural invariants of an Offer.
func (o Offer) Valid() bool {
	if len(o.Outcomes) < 1 || len(o.Outcomes) > 3 {
		return false
	}
	draws := 0
	for _, out := range o.Outcomes {
		if out.IsDraw() {
			draws++
		}
	}
	return draws <= 1
}

// String renders the offer as "[<game>] <kind> #<oid>
// (outcome x1.23|outcome x4.56)"; the date is not included.
func (o Offer) String() string {
	s := fmt.Sprintf("[%s] %s #%d (", o.Game, o.Kind, o.OID)
	for i, out := range o.Outcomes {
		if i > 0 {
			s += "|"
		}
		s += fmt.Sprintf("%s x%.2f", out.Title, out.Coef)
	}
	return s + ")"
}

// ContentHash combines the fields the match Table shards on: rounded date,
// game, kind, and outcome count. roundDate is supplied by the caller (the
// matcher package owns the rounding rule) to keep this package free of a
// dependency on matcher.
func ContentHash(roundedDate uint32, game Game, kind Kind, outcomeCount int) uint64 {
	h := fnv.New64a()
	var buf [4]byte
	putUint32(buf[:], roundedDate)
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(game))
	_, _ = h.Write([]byte(kind))
	putUint32(buf[:], uint32(outcomeCount))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
