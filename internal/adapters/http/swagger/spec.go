package swagger

import (
	"net/http"

	"github.com/okian/skins/internal/adapters/http/api"
	"github.com/okian/skins/internal/adapters/repository"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/skins"
	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// Version of the published API document.
const Version = "1.0.0"

type gamePath struct {
	GameID string `path:"gameID"`
}

type playerPath struct {
	PlayerID string `path:"playerID"`
}

type moneyListQuery struct {
	Limit int `query:"limit" minimum:"1" description:"Number of entries, default 10."`
}

// NewSpec reflects the API types into an OpenAPI 3 document.
func NewSpec() (*openapi3.Spec, error) {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Skins API"
	r.Spec.Info.Version = Version
	r.Spec.Info.WithDescription("Golf skins scoring, payouts and money list.")

	type op struct {
		method, path, summary string
		req                   any
		resp                  map[int]any
	}
	ops := []op{
		{http.MethodPost, "/skins/preview", "Compute skins without recording the game",
			api.GameRequest{}, map[int]any{
				http.StatusOK:         skins.Result{},
				http.StatusBadRequest: api.ErrorResponse{},
			}},
		{http.MethodPost, "/games", "Submit a completed game for settlement",
			api.GameRequest{}, map[int]any{
				http.StatusAccepted:           api.AckResponse{},
				http.StatusOK:                 api.AckResponse{},
				http.StatusBadRequest:         api.ErrorResponse{},
				http.StatusTooManyRequests:    api.ErrorResponse{},
				http.StatusServiceUnavailable: api.ErrorResponse{},
			}},
		{http.MethodGet, "/games/{gameID}", "Settlement status and result of a game",
			gamePath{}, map[int]any{
				http.StatusOK:       repository.GameRecord{},
				http.StatusNotFound: api.ErrorResponse{},
			}},
		{http.MethodGet, "/moneylist", "Top of the money list",
			moneyListQuery{}, map[int]any{
				http.StatusOK:         []api.Entry{},
				http.StatusBadRequest: api.ErrorResponse{},
			}},
		{http.MethodGet, "/moneylist/{playerID}", "Standing of one player",
			playerPath{}, map[int]any{
				http.StatusOK:       api.Entry{},
				http.StatusNotFound: api.ErrorResponse{},
			}},
		{http.MethodGet, "/course", "Configured course profile",
			nil, map[int]any{http.StatusOK: course.Profile{}}},
		{http.MethodGet, "/stats", "Service statistics",
			nil, map[int]any{http.StatusOK: map[string]any{}}},
	}

	for _, o := range ops {
		oc, err := r.NewOperationContext(o.method, o.path)
		if err != nil {
			return nil, err
		}
		oc.SetSummary(o.summary)
		if o.req != nil {
			oc.AddReqStructure(o.req)
		}
		for status, body := range o.resp {
			oc.AddRespStructure(body, openapi.WithHTTPStatus(status))
		}
		if err := r.AddOperation(oc); err != nil {
			return nil, err
		}
	}

	health, err := r.NewOperationContext(http.MethodGet, "/healthz")
	if err != nil {
		return nil, err
	}
	health.SetSummary("Prometheus metrics")
	health.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType("text/plain"))
	if err := r.AddOperation(health); err != nil {
		return nil, err
	}
	return r.Spec, nil
}
