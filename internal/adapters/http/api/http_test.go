package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/skins/internal/adapters/http/api"
	"github.com/okian/skins/internal/adapters/mq/queue"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/dedupe"
	"github.com/okian/skins/internal/domain/model"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeDeps struct {
	dedupe.Deduper

	mu         sync.Mutex
	enqueued   []model.Settlement
	enqueueErr error
	records    map[string]repository.GameRecord
	moneyList  *repository.TreapStore
	engine     *skins.Engine
	course     course.Profile
}

func newFakeDeps(t *testing.T) *fakeDeps {
	ml := repository.NewTreapStore(context.Background())
	t.Cleanup(func() { _ = ml.Close() })
	return &fakeDeps{
		Deduper:   dedupe.NewInMemoryDeduper(),
		records:   map[string]repository.GameRecord{},
		moneyList: ml,
		engine:    skins.NewEngine(),
		course: course.Profile{
			Name:  "short",
			Holes: 3,
			Par:   []int{4, 4, 3},
			Ranks: map[string][]int{course.DefaultCategory: {1, 2, 3}},
		},
	}
}

func (f *fakeDeps) Enqueue(_ context.Context, s model.Settlement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, s)
	f.records[s.Game.ID] = repository.GameRecord{GameID: s.Game.ID, Status: repository.StatusPending}
	return nil
}

func (f *fakeDeps) Preview(ctx context.Context, s model.Settlement) (skins.Result, error) {
	return f.engine.Compute(ctx, skins.Input{Course: f.course, Game: s.Game, Scores: s.Scores, CTPWinner: s.CTPWinner})
}

func (f *fakeDeps) Game(_ context.Context, id string) (repository.GameRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return repository.GameRecord{}, fmt.Errorf("game %s: %w", id, repository.ErrNotFound)
	}
	return rec, nil
}

func (f *fakeDeps) TopN(ctx context.Context, n int) ([]api.Entry, error) {
	return f.moneyList.TopN(ctx, n)
}

func (f *fakeDeps) Rank(ctx context.Context, id string) (api.Entry, error) {
	return f.moneyList.Rank(ctx, id)
}

func (f *fakeDeps) Course() course.Profile { return f.course }

type staticStats map[string]any

func (s staticStats) GetStats() map[string]any { return s }

const gameBody = `{
  "game": {
    "id": "g-1", "holes": 3, "ctp_hole": 2, "entry_fee": 10,
    "participants": [
      {"id": "X", "name": "Xavier", "handicap": null},
      {"id": "Y", "name": "Yolanda", "handicap": 10}
    ]
  },
  "scores": {"X": {"1": 4, "2": 5, "3": 3}, "Y": {"1": 5, "2": 4, "3": 3}}
}`

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(rec *httptest.ResponseRecorder) api.ErrorResponse {
	var e api.ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &e)
	return e
}

func TestGames(t *testing.T) {
	_ = logger.Init()

	Convey("Given a router over fake dependencies", t, func() {
		deps := newFakeDeps(t)
		h := api.NewRouter(api.NewServer(deps, staticStats{"queue_size": 0}, 50))

		Convey("A valid game is accepted once", func() {
			rec := do(h, http.MethodPost, "/games", gameBody)
			So(rec.Code, ShouldEqual, http.StatusAccepted)
			So(rec.Header().Get("Location"), ShouldEqual, "/games/g-1")

			var ack api.AckResponse
			So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
			So(ack.Status, ShouldEqual, "accepted")
			So(ack.Duplicate, ShouldBeFalse)
			So(deps.enqueued, ShouldHaveLength, 1)

			Convey("And a resubmission is reported as duplicate", func() {
				rec := do(h, http.MethodPost, "/games", gameBody)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.Duplicate, ShouldBeTrue)
				So(deps.enqueued, ShouldHaveLength, 1)
			})

			Convey("And its record is readable", func() {
				rec := do(h, http.MethodGet, "/games/g-1", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"pending"`)
			})
		})

		Convey("A full queue returns 429 and the ID can be retried", func() {
			deps.enqueueErr = queue.ErrFull
			rec := do(h, http.MethodPost, "/games", gameBody)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(rec).Code, ShouldEqual, "backpressure")

			deps.enqueueErr = nil
			rec = do(h, http.MethodPost, "/games", gameBody)
			So(rec.Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("A closed queue returns 503", func() {
			deps.enqueueErr = queue.ErrClosed
			rec := do(h, http.MethodPost, "/games", gameBody)
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("Malformed bodies are rejected", func() {
			So(do(h, http.MethodPost, "/games", "{").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/games", `{"game":{"id":""}}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodPost, "/games", `{"bogus":1}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Unknown games are 404", func() {
			rec := do(h, http.MethodGet, "/games/nope", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(rec).Code, ShouldEqual, "not_found")
		})
	})
}

func TestPreview(t *testing.T) {
	_ = logger.Init()

	Convey("Given a router over fake dependencies", t, func() {
		deps := newFakeDeps(t)
		h := api.NewRouter(api.NewServer(deps, nil, 50))

		Convey("A preview computes skins without enqueueing", func() {
			body := strings.Replace(gameBody, `"id": "g-1", `, "", 1)
			rec := do(h, http.MethodPost, "/skins/preview", body)
			So(rec.Code, ShouldEqual, http.StatusOK)

			var res skins.Result
			So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
			So(res.GameID, ShouldNotBeEmpty)
			So(res.Pot, ShouldEqual, 20)
			So(res.TotalSkins, ShouldEqual, 3)
			So(res.Payouts, ShouldHaveLength, 2)
			So(res.Payouts[0].PlayerID, ShouldEqual, "Y")
			So(res.Payouts[0].Amount, ShouldEqual, 14)
			So(res.Payouts[1].Amount, ShouldEqual, 6)
			So(deps.enqueued, ShouldBeEmpty)
		})

		Convey("An out of range CTP hole is an invalid configuration", func() {
			body := strings.Replace(gameBody, `"ctp_hole": 2`, `"ctp_hole": 7`, 1)
			rec := do(h, http.MethodPost, "/skins/preview", body)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec).Code, ShouldEqual, "invalid_configuration")
		})

		Convey("Scores for strangers are invalid input", func() {
			body := strings.Replace(gameBody, `"Y": {"1": 5`, `"Z": {"1": 5`, 1)
			rec := do(h, http.MethodPost, "/skins/preview", body)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec).Code, ShouldEqual, "invalid_input")
		})
	})
}

func TestMoneyList(t *testing.T) {
	_ = logger.Init()

	Convey("Given a money list with two players", t, func() {
		deps := newFakeDeps(t)
		ctx := context.Background()
		So(deps.moneyList.Credit(ctx,
			repository.Credit{PlayerID: "X", Name: "Xavier", Amount: 20, Skins: 2},
			repository.Credit{PlayerID: "Y", Name: "Yolanda", Amount: 5, Skins: 1},
		), ShouldBeNil)
		h := api.NewRouter(api.NewServer(deps, staticStats{}, 5))

		Convey("The top of the list is ordered by winnings", func() {
			rec := do(h, http.MethodGet, "/moneylist?limit=2", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var entries []api.Entry
			So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].PlayerID, ShouldEqual, "X")
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[1].Winnings, ShouldEqual, 5)
		})

		Convey("Limits are validated", func() {
			So(do(h, http.MethodGet, "/moneylist?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/moneylist?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			rec := do(h, http.MethodGet, "/moneylist?limit=6", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(rec).Code, ShouldEqual, "limit_exceeded")
		})

		Convey("A player's standing is returned", func() {
			rec := do(h, http.MethodGet, "/moneylist/Y", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var e api.Entry
			So(json.Unmarshal(rec.Body.Bytes(), &e), ShouldBeNil)
			So(e.Rank, ShouldEqual, 2)
			So(e.Skins, ShouldEqual, 1)
			So(do(h, http.MethodGet, "/moneylist/nobody", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestInfoEndpoints(t *testing.T) {
	_ = logger.Init()

	Convey("Given a router", t, func() {
		deps := newFakeDeps(t)
		h := api.NewRouter(api.NewServer(deps, staticStats{"workers": 2}, 0))

		Convey("The course is served", func() {
			rec := do(h, http.MethodGet, "/course", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"short"`)
		})

		Convey("Stats are served", func() {
			rec := do(h, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"workers":2`)
		})

		Convey("Health exposes prometheus metrics", func() {
			do(h, http.MethodGet, "/course", "")
			rec := do(h, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "skins_settlement_http_requests_total")
		})
	})
}
