package simulate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Generator builds random but plausible games for one course. Game IDs are
// derived from the seed so reruns with the same seed are detected as
// duplicates by the server.
type Generator struct {
	faker   *gofakeit.Faker
	course  course.Profile
	players []model.Player
	maxPer  int
	ns      uuid.UUID
}

// NewGenerator creates a generator with a fixed pool of players.
func NewGenerator(profile course.Profile, players, maxPerGame int, seed uint64) *Generator {
	f := gofakeit.New(seed)
	if players < minPerGame {
		players = minPerGame
	}
	if maxPerGame < minPerGame {
		maxPerGame = minPerGame
	}
	pool := make([]model.Player, players)
	for i := range pool {
		h := model.NoHandicap()
		if f.Number(1, noHandicapOdds) != 1 {
			h = model.HandicapOf(decimal.NewFromFloat(f.Float64Range(0, maxHandicap)).Round(1))
		}
		pool[i] = model.Player{
			ID:       "p" + strconv.Itoa(i+1),
			Name:     f.Name(),
			Handicap: h,
		}
	}
	return &Generator{
		faker:   f,
		course:  profile,
		players: pool,
		maxPer:  min(maxPerGame, players),
		ns:      uuid.NewSHA1(uuid.NameSpaceOID, []byte("skins-sim/"+strconv.FormatUint(seed, 10))),
	}
}

// Players returns the pool.
func (g *Generator) Players() []model.Player { return g.players }

// Next generates game number i.
func (g *Generator) Next(i int) Game {
	f := g.faker
	n := f.Number(minPerGame, g.maxPer)
	order := make([]int, len(g.players))
	for j := range order {
		order[j] = j
	}
	f.ShuffleInts(order)
	picked := make([]model.Participant, 0, n)
	for _, idx := range order[:n] {
		picked = append(picked, model.Participant{Player: g.players[idx], Wolf: f.Number(1, 10) == 1})
	}

	sheet := make(model.ScoreSheet, n)
	for _, p := range picked {
		holes := make(map[int]int, g.course.Holes)
		for hole := 1; hole <= g.course.Holes; hole++ {
			if f.Number(1, missingOdds) == 1 {
				continue
			}
			par := g.course.Par[hole-1]
			holes[hole] = max(1, par+f.Number(-1, 3))
		}
		sheet[p.ID] = holes
	}

	out := Game{
		Game: model.Game{
			ID:           uuid.NewSHA1(g.ns, []byte(strconv.Itoa(i))).String(),
			Holes:        g.course.Holes,
			CTPHole:      g.ctpHole(),
			EntryFee:     int64(f.Number(1, maxEntryFee)),
			Participants: picked,
		},
		Scores: sheet,
	}
	if f.Number(1, ctpOdds) == 1 {
		out.CTPWinner = picked[f.Number(0, n-1)].ID
	}
	return out
}

// ctpHole prefers a par 3, like most clubs do.
func (g *Generator) ctpHole() int {
	var threes []int
	for i, par := range g.course.Par {
		if par == 3 {
			threes = append(threes, i+1)
		}
	}
	if len(threes) == 0 {
		return g.faker.Number(1, g.course.Holes)
	}
	return threes[g.faker.Number(0, len(threes)-1)]
}

// Generate returns n games.
func (g *Generator) Generate(n int) []Game {
	games := make([]Game, n)
	for i := range games {
		games[i] = g.Next(i)
	}
	return games
}

// SaveGames writes games as an indented JSON array.
func SaveGames(path string, games []Game) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal games: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), filePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadGames reads a file written by SaveGames.
func LoadGames(path string) ([]Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var games []Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return games, nil
}
