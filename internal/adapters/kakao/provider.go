package kakao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

const (
	keywordSearchPath = "/v2/local/search/keyword.json"
	defaultQuery      = "음식점"
	pageSize          = 15
	maxRadius         = 20000
	providerName      = "kakao"
)

// ErrNoAPIKey is returned when no REST key is configured.
var ErrNoAPIKey = errors.New("kakao: api key not configured")

// Provider implements ports.PlaceProvider with the Kakao Local keyword
// search API.
type Provider struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

// NewProvider creates a new Provider.
func NewProvider(apiKey, baseURL string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &fasthttp.Client{
			Name:                "meetpoint",
			MaxConnsPerHost:     32,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

type searchResponse struct {
	Documents []document `json:"documents"`
}

// document fields are strings on the wire, coordinates included.
type document struct {
	PlaceName       string `json:"place_name"`
	CategoryName    string `json:"category_name"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"`
	Y               string `json:"y"`
	Distance        string `json:"distance"`
	PlaceURL        string `json:"place_url"`
}

func (d document) toPlace() domain.Place {
	lat, _ := strconv.ParseFloat(d.Y, 64)
	lng, _ := strconv.ParseFloat(d.X, 64)
	dist, _ := strconv.Atoi(d.Distance)
	return domain.Place{
		Name:           d.PlaceName,
		Category:       d.CategoryName,
		Address:        d.AddressName,
		RoadAddress:    d.RoadAddressName,
		Lat:            lat,
		Lng:            lng,
		DistanceMeters: dist,
		URL:            d.PlaceURL,
		Provider:       providerName,
	}
}

// Search returns restaurants within radiusMeters of center, nearest ranking
// as decided by Kakao.
func (p *Provider) Search(ctx context.Context, center domain.GeoPoint, radiusMeters int) ([]domain.Place, error) {
	if p.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if radiusMeters <= 0 || radiusMeters > maxRadius {
		radiusMeters = maxRadius
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.baseURL + keywordSearchPath)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAuthorization, "KakaoAK "+p.apiKey)
	args := req.URI().QueryArgs()
	args.Set("query", defaultQuery)
	args.Set("x", strconv.FormatFloat(center.Lng, 'f', -1, 64))
	args.Set("y", strconv.FormatFloat(center.Lat, 'f', -1, 64))
	args.SetUint("radius", radiusMeters)
	args.SetUint("size", pageSize)

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("kakao request: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("kakao: unexpected status %d", code)
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("kakao decode: %w", err)
	}

	places := make([]domain.Place, 0, len(body.Documents))
	for _, d := range body.Documents {
		places = append(places, d.toPlace())
	}
	return places, nil
}
