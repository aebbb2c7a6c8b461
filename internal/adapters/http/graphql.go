package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/medgrid/resqroute/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	facilityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Facility",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.String},
			"name":               &graphql.Field{Type: graphql.String},
			"location":           &graphql.Field{Type: geoPointType},
			"capacity":           &graphql.Field{Type: graphql.Int},
			"specialties":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"emergency_services": &graphql.Field{Type: graphql.Boolean},
			"trauma_center":      &graphql.Field{Type: graphql.Boolean},
			"wait_minutes":       &graphql.Field{Type: graphql.Float},
			"distance_km":        &graphql.Field{Type: graphql.Float},
		},
	})

	dispatchRecordType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DispatchRecord",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.String},
			"call_id":           &graphql.Field{Type: graphql.String},
			"incident":          &graphql.Field{Type: geoPointType},
			"facility_id":       &graphql.Field{Type: graphql.String},
			"facility_name":     &graphql.Field{Type: graphql.String},
			"category":          &graphql.Field{Type: graphql.String},
			"priority":          &graphql.Field{Type: graphql.String},
			"total_distance_km": &graphql.Field{Type: graphql.Float},
			"eta_minutes":       &graphql.Field{Type: graphql.Float},
			"fallback":          &graphql.Field{Type: graphql.Boolean},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DispatchReport",
		Fields: graphql.Fields{
			"period_days":      &graphql.Field{Type: graphql.Int},
			"total_dispatches": &graphql.Field{Type: graphql.Int},
			"avg_eta_minutes":  &graphql.Field{Type: graphql.Float},
			"fallback_count":   &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"facilities": &graphql.Field{
				Type:        graphql.NewList(facilityType),
				Description: "List the facility catalog",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Facilities.List(), nil
				},
			},
			"nearestFacility": &graphql.Field{
				Type:        facilityType,
				Description: "Closest facility to a point",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					return deps.Facilities.Nearest(domain.GeoPoint{Lat: lat, Lon: lon})
				},
			},
			"nearestFacilities": &graphql.Field{
				Type:        graphql.NewList(facilityType),
				Description: "The k closest facilities to a point, nearest first",
				Args: graphql.FieldConfigArgument{
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"count": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 3},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					count := p.Args["count"].(int)
					return deps.Facilities.NearestK(domain.GeoPoint{Lat: lat, Lon: lon}, count)
				},
			},
			"dispatches": &graphql.Field{
				Type:        graphql.NewList(dispatchRecordType),
				Description: "Dispatch audit trail, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					records, _, err := deps.Dispatch.ListDispatches(p.Context, limit, offset)
					return records, err
				},
			},
			"dispatchReport": &graphql.Field{
				Type:        reportType,
				Description: "Aggregate dispatch statistics for a period",
				Args: graphql.FieldConfigArgument{
					"period_days": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 30},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					periodDays := p.Args["period_days"].(int)
					return deps.Dispatch.Report(p.Context, periodDays)
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
