package kakao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

const sampleBody = `{
  "documents": [
    {
      "place_name": "을지로 골뱅이",
      "category_name": "음식점 > 한식",
      "address_name": "서울 중구 을지로3가 1",
      "road_address_name": "서울 중구 을지로 100",
      "x": "126.9910",
      "y": "37.5662",
      "distance": "231",
      "place_url": "http://place.map.kakao.com/1"
    }
  ],
  "meta": {"total_count": 1}
}`

func TestSearch_ParsesDocuments(t *testing.T) {
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, keywordSearchPath, r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	p := NewProvider("secret", srv.URL+"/", time.Second)
	places, err := p.Search(context.Background(), domain.GeoPoint{Lat: 37.5665, Lng: 126.978}, 1000)
	require.NoError(t, err)
	require.Len(t, places, 1)

	pl := places[0]
	assert.Equal(t, "을지로 골뱅이", pl.Name)
	assert.Equal(t, "음식점 > 한식", pl.Category)
	assert.Equal(t, "서울 중구 을지로 100", pl.RoadAddress)
	assert.InDelta(t, 37.5662, pl.Lat, 1e-9)
	assert.InDelta(t, 126.9910, pl.Lng, 1e-9)
	assert.Equal(t, 231, pl.DistanceMeters)
	assert.Equal(t, "kakao", pl.Provider)

	assert.Equal(t, "KakaoAK secret", gotAuth)
	assert.Contains(t, gotQuery, "radius=1000")
	assert.Contains(t, gotQuery, "size=15")
	assert.Contains(t, gotQuery, "x=126.978")
	assert.Contains(t, gotQuery, "y=37.5665")
}

func TestSearch_NonOKIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewProvider("bad", srv.URL, time.Second).Search(context.Background(), domain.GeoPoint{Lat: 37, Lng: 127}, 1000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSearch_MissingKey(t *testing.T) {
	_, err := NewProvider("", "http://unused", time.Second).Search(context.Background(), domain.GeoPoint{}, 1000)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestSearch_NoDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{}}`))
	}))
	defer srv.Close()

	places, err := NewProvider("k", srv.URL, time.Second).Search(context.Background(), domain.GeoPoint{Lat: 37, Lng: 127}, 1000)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestSearch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProvider("k", "http://127.0.0.1:1", time.Second).Search(ctx, domain.GeoPoint{}, 1000)
	assert.ErrorIs(t, err, context.Canceled)
}
