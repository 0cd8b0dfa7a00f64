// Package mongo reads US-Accidents documents from MongoDB.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/couchcryptid/accident-weather-analysis/internal/config"
	"github.com/couchcryptid/accident-weather-analysis/internal/domain"
)

// Document field names.
const (
	fieldObjectID  = "_id"
	fieldID        = "ID"
	fieldStartTime = "Start_Time"
	fieldStartLat  = "Start_Lat"
	fieldStartLng  = "Start_Lng"
)

// Source is an accident source backed by a MongoDB collection.
type Source struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeLayout string
	logger     *slog.Logger
}

// Connect opens a client for the configured collection and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Source, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(cfg.StoreTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("mongodb connected", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
	return &Source{
		client:     client,
		collection: client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
		timeLayout: cfg.MongoTimeLayout,
		logger:     logger,
	}, nil
}

// Ping checks that the primary is reachable.
func (s *Source) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Accidents returns the accidents whose Start_Time lies in w. Start_Time may
// be stored either as a string in the configured layout or as a BSON date.
func (s *Source) Accidents(ctx context.Context, w domain.Window) ([]domain.Accident, error) {
	cur, err := s.collection.Find(ctx, rangeFilter(w, s.timeLayout),
		options.Find().SetSort(bson.D{{Key: fieldStartTime, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find accidents: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.Accident
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode accident: %w", err)
		}
		out = append(out, accidentFromDocument(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate accidents: %w", err)
	}
	s.logger.Debug("accidents fetched", "count", len(out), "period", w.Label())
	return out, nil
}

// rangeFilter matches Start_Time in the window. MongoDB compares values
// within a type bracket, so both clauses can be combined safely.
func rangeFilter(w domain.Window, layout string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{fieldStartTime: bson.M{
			"$gte": w.Start.UTC().Format(layout),
			"$lte": w.End.UTC().Format(layout),
		}},
		bson.M{fieldStartTime: bson.M{
			"$gte": primitive.NewDateTimeFromTime(w.Start),
			"$lte": primitive.NewDateTimeFromTime(w.End),
		}},
	}}
}

// accidentFromDocument maps a raw document to an Accident. Missing or
// malformed fields are left empty for the join to report.
func accidentFromDocument(doc bson.M) domain.Accident {
	a := domain.Accident{Attributes: map[string]any{}}

	switch id := doc[fieldID].(type) {
	case string:
		a.ID = id
	case nil:
		if oid, ok := doc[fieldObjectID].(primitive.ObjectID); ok {
			a.ID = oid.Hex()
		}
	default:
		a.ID = fmt.Sprint(id)
	}

	switch st := doc[fieldStartTime].(type) {
	case string:
		a.StartTime = domain.RawTimestamp(st)
	case primitive.DateTime:
		a.StartTime = domain.At(st.Time())
	case time.Time:
		a.StartTime = domain.At(st)
	}

	lat, latOK := number(doc[fieldStartLat])
	lng, lngOK := number(doc[fieldStartLng])
	if latOK && lngOK {
		a.Location = &domain.Geo{Lat: lat, Lng: lng}
	}

	for k, v := range doc {
		switch k {
		case fieldObjectID, fieldID, fieldStartTime, fieldStartLat, fieldStartLng:
			continue
		}
		if s := scalar(v); s != nil {
			a.Attributes[k] = s
		}
	}
	return a
}

// number accepts the numeric BSON types and numeric strings.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case primitive.Decimal128:
		var err error
		if f, err = parseDecimal(x); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(x), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseDecimal(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscan(d.String(), &f)
	return f, err
}

// scalar keeps values the aggregator can use and drops nested documents.
func scalar(v any) any {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64, bool:
		return x
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Decimal128:
		if f, err := parseDecimal(x); err == nil {
			return f
		}
	}
	return nil
}
