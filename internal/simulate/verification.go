package simulate

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/internal/domain/types"
)

// VerifyResult checks a settled game against the payout invariants and a
// local recomputation. It returns one message per problem found.
func VerifyResult(g Game, rec repository.GameRecord, local skins.Result) []string {
	id := g.Game.ID
	if rec.Status != repository.StatusSettled || rec.Result == nil {
		return []string{fmt.Sprintf("game %s: status %s, want settled", id, rec.Status)}
	}
	res := *rec.Result
	var out []string
	fail := func(format string, args ...any) {
		out = append(out, fmt.Sprintf("game %s: ", id)+fmt.Sprintf(format, args...))
	}

	if want := g.Game.Pot(); res.Pot != want {
		fail("pot %d, want %d", res.Pot, want)
	}
	var sum int64
	for _, p := range res.Payouts {
		if p.Amount < 0 {
			fail("negative payout %d for %s", p.Amount, p.PlayerID)
		}
		sum += p.Amount
	}
	switch {
	case res.Undistributed && (len(res.Payouts) != 0 || res.TotalSkins != 0):
		fail("undistributed pot with %d payouts and %d skins", len(res.Payouts), res.TotalSkins)
	case !res.Undistributed && sum != res.Pot:
		fail("payouts sum to %d, pot is %d", sum, res.Pot)
	}
	for _, a := range res.Skins {
		if a.Hole < 1 || a.Hole > g.Game.Holes {
			fail("skin on hole %d outside [1,%d]", a.Hole, g.Game.Holes)
		}
		if a.Kind == model.SkinCTP && (a.Hole != g.Game.CTPHole || a.PlayerID != g.CTPWinner) {
			fail("ctp skin %s on hole %d, want %s on %d", a.PlayerID, a.Hole, g.CTPWinner, g.Game.CTPHole)
		}
	}
	if len(res.Skins) != res.TotalSkins {
		fail("%d awards but total_skins %d", len(res.Skins), res.TotalSkins)
	}

	if diff := cmp.Diff(local.Payouts, res.Payouts); diff != "" {
		fail("payouts differ from local computation (-local +server):\n%s", diff)
	}
	if diff := cmp.Diff(awardKeys(local.Skins), awardKeys(res.Skins)); diff != "" {
		fail("skins differ from local computation (-local +server):\n%s", diff)
	}
	return out
}

type awardKey struct {
	Hole     int
	PlayerID string
	Kind     model.SkinKind
}

func awardKeys(awards []model.SkinAward) []awardKey {
	out := make([]awardKey, len(awards))
	for i, a := range awards {
		out[i] = awardKey{Hole: a.Hole, PlayerID: a.PlayerID, Kind: a.Kind}
	}
	return out
}

// VerifyMoneyList checks ordering and dense ranks of a money list page.
func VerifyMoneyList(entries []types.Entry) []string {
	var out []string
	for i, e := range entries {
		if e.Winnings < 0 {
			out = append(out, fmt.Sprintf("player %s has negative winnings %d", e.PlayerID, e.Winnings))
		}
		if i == 0 {
			if e.Rank != 1 {
				out = append(out, fmt.Sprintf("first entry has rank %d", e.Rank))
			}
			continue
		}
		prev := entries[i-1]
		switch {
		case e.Winnings > prev.Winnings:
			out = append(out, fmt.Sprintf("entry %d (%s) out of order", i, e.PlayerID))
		case e.Winnings == prev.Winnings && e.Rank != prev.Rank:
			out = append(out, fmt.Sprintf("tied entry %d (%s) has rank %d, want %d", i, e.PlayerID, e.Rank, prev.Rank))
		case e.Winnings < prev.Winnings && e.Rank != prev.Rank+1:
			out = append(out, fmt.Sprintf("entry %d (%s) has rank %d, want %d", i, e.PlayerID, e.Rank, prev.Rank+1))
		}
	}
	return out
}
