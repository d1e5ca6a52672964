package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/meetpoint/meetpoint/internal/core/domain"
	"github.com/meetpoint/meetpoint/internal/core/usecases"
)

// meetupStatus resolves Meetup.status to its text form; the default
// resolver would expose the integer.
func meetupStatus(p graphql.ResolveParams) (interface{}, error) {
	switch m := p.Source.(type) {
	case domain.Meetup:
		return m.Status.String(), nil
	case *domain.Meetup:
		return m.Status.String(), nil
	}
	return nil, nil
}

// buildSchema creates the read-only GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	confirmedPlaceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ConfirmedPlace",
		Fields: graphql.Fields{
			"name":         &graphql.Field{Type: graphql.String},
			"lat":          &graphql.Field{Type: graphql.Float},
			"lng":          &graphql.Field{Type: graphql.Float},
			"address":      &graphql.Field{Type: graphql.String},
			"confirmed_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	meetupType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Meetup",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.Int},
			"title":         &graphql.Field{Type: graphql.String},
			"description":   &graphql.Field{Type: graphql.String},
			"capacity":      &graphql.Field{Type: graphql.Int},
			"current_count": &graphql.Field{Type: graphql.Int},
			"status":        &graphql.Field{Type: graphql.String, Resolve: meetupStatus},
			"location":      &graphql.Field{Type: geoPointType},
			"midpoint":      &graphql.Field{Type: geoPointType},
			"confirmed_poi": &graphql.Field{Type: confirmedPlaceType},
			"distance_km":   &graphql.Field{Type: graphql.Float},
			"created_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"name":         &graphql.Field{Type: graphql.String},
			"category":     &graphql.Field{Type: graphql.String},
			"address":      &graphql.Field{Type: graphql.String},
			"road_address": &graphql.Field{Type: graphql.String},
			"lat":          &graphql.Field{Type: graphql.Float},
			"lng":          &graphql.Field{Type: graphql.Float},
			"distance_m":   &graphql.Field{Type: graphql.Int},
			"place_url":    &graphql.Field{Type: graphql.String},
			"provider":     &graphql.Field{Type: graphql.String},
		},
	})

	placesResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlacesResult",
		Fields: graphql.Fields{
			"pois": &graphql.Field{Type: graphql.NewList(placeType)},
			"source": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if r, ok := p.Source.(*usecases.PlacesResult); ok {
						return string(r.Source), nil
					}
					return nil, nil
				},
			},
			"throttled": &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"meetup": &graphql.Field{
				Type:        meetupType,
				Description: "Get a meetup by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(int)
					return deps.Meetups.GetByID(p.Context, int64(id))
				},
			},
			"meetupsInBounds": &graphql.Field{
				Type:        graphql.NewList(meetupType),
				Description: "Meetups inside a bounding box, newest first",
				Args: graphql.FieldConfigArgument{
					"min_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"min_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					b := domain.Bounds{
						MinLat: p.Args["min_lat"].(float64),
						MinLng: p.Args["min_lng"].(float64),
						MaxLat: p.Args["max_lat"].(float64),
						MaxLng: p.Args["max_lng"].(float64),
					}
					return deps.Meetups.InBounds(p.Context, b, p.Args["limit"].(int))
				},
			},
			"meetupsNearby": &graphql.Field{
				Type:        graphql.NewList(meetupType),
				Description: "Meetups near a location, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_m": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1000.0},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					center := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					return deps.Meetups.Nearby(p.Context, center, p.Args["radius_m"].(float64), p.Args["limit"].(int))
				},
			},
			"places": &graphql.Field{
				Type:        placesResultType,
				Description: "Places around a meetup's midpoint",
				Args: graphql.FieldConfigArgument{
					"meetup_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["meetup_id"].(int)
					return deps.POIs.PlacesForMeetup(p.Context, int64(id), false)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
