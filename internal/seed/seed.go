// Package seed loads parkings and their spaces from a TOML file.
//
//	[[parking]]
//	name = "Centro"
//	hourly_price_cents = 1500
//	category = "standard"
//	spaces = ["A1", "A2", "A3"]
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
)

type File struct {
	Parkings []Parking `toml:"parking"`
}

type Parking struct {
	Name             string   `toml:"name"`
	HourlyPriceCents int64    `toml:"hourly_price_cents"`
	Category         string   `toml:"category"`
	Spaces           []string `toml:"spaces"`
}

// Target is what Apply writes to. *service.ParkingService implements it.
type Target interface {
	ListParkings(ctx context.Context) ([]db.Parking, error)
	CreateParking(ctx context.Context, req entities.ParkingRequest) (*db.Parking, error)
	CreateSpace(ctx context.Context, parkingID string, req entities.SpaceRequest) (*db.ParkingSpace, error)
}

type Result struct {
	ParkingsCreated int
	SpacesCreated   int
	SpacesSkipped   int
}

func Load(path string) (*File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &f, nil
}

func Parse(data string) (*File, error) {
	var f File
	meta, err := toml.Decode(data, &f)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys: %v", undecoded)
	}
	return &f, nil
}

// Apply creates the parkings in f. A parking whose name already exists is
// reused and spaces whose code it already has are skipped, so running the
// same file twice changes nothing.
func Apply(ctx context.Context, target Target, f *File, logger zerolog.Logger) (Result, error) {
	var res Result

	existing, err := target.ListParkings(ctx)
	if err != nil {
		return res, err
	}
	byName := make(map[string]string, len(existing))
	for _, p := range existing {
		byName[p.Name] = p.ID
	}

	for _, p := range f.Parkings {
		id, ok := byName[p.Name]
		if !ok || p.Name == "" {
			created, err := target.CreateParking(ctx, entities.ParkingRequest{
				Name:             p.Name,
				HourlyPriceCents: p.HourlyPriceCents,
				NumSpaces:        len(p.Spaces),
				Category:         db.ParkingCategory(p.Category),
			})
			if err != nil {
				return res, fmt.Errorf("parking %q: %w", p.Name, err)
			}
			id = created.ID
			byName[created.Name] = id
			res.ParkingsCreated++
		}

		for _, code := range p.Spaces {
			_, err := target.CreateSpace(ctx, id, entities.SpaceRequest{Code: code})
			var conflict *apperrors.ConflictError
			switch {
			case errors.As(err, &conflict):
				res.SpacesSkipped++
			case err != nil:
				return res, fmt.Errorf("parking %q space %q: %w", p.Name, code, err)
			default:
				res.SpacesCreated++
			}
		}
		logger.Info().Str("parking", p.Name).Int("spaces", len(p.Spaces)).Msg("seeded parking")
	}
	return res, nil
}
