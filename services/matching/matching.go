package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	providerRepo "limora/database/repository/provider"
	"limora/models"
	"limora/utils"
)

// searchRadiusKm bounds the geo search around the pickup point.
const searchRadiusKm = 50.0

// RankedProvider holds provider data along with computed score and proximity.
type RankedProvider struct {
	Provider   models.Provider
	RankPoints float64
	Preferred  bool
	Proximity  float64
}

// MatchingService computes the eligible provider set for a booking request.
type MatchingService interface {
	MatchProviders(ctx context.Context, req *models.BookingRequest, maxProviders int) ([]models.ProviderDTO, error)
}

// DefaultMatchingService implements MatchingService.
type DefaultMatchingService struct {
	ProviderRepo providerRepo.ProviderRepository
}

// MatchProviders searches, scores and ranks providers for the request.
// When no providers match, it returns an empty list rather than an error.
func (s *DefaultMatchingService) MatchProviders(ctx context.Context, req *models.BookingRequest, maxProviders int) ([]models.ProviderDTO, error) {
	criteria := providerRepo.SearchCriteria{
		VehicleType:   req.VehicleType,
		MinPassengers: req.PassengerCount,
		NearGeo:       req.PickupGeo,
		MaxDistanceKm: searchRadiusKm,
	}
	ranked, err := s.rankProviders(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to match providers: %w", err)
	}
	if len(ranked) == 0 {
		utils.GetLogger().Sugar().Infof("No providers matched for request %s (%s)", req.ID, req.VehicleType)
		return []models.ProviderDTO{}, nil
	}
	if maxProviders > 0 && len(ranked) > maxProviders {
		ranked = ranked[:maxProviders]
	}
	return extractProvidersDTO(ranked), nil
}

// rankProviders performs the actual provider search, scoring and ranking.
func (s *DefaultMatchingService) rankProviders(ctx context.Context, criteria providerRepo.SearchCriteria) ([]RankedProvider, error) {
	providers, err := s.ProviderRepo.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("provider search failed: %w", err)
	}
	if len(providers) == 0 {
		return []RankedProvider{}, nil
	}

	if len(criteria.NearGeo.Coordinates) < 2 {
		return nil, fmt.Errorf("invalid pickup coordinates")
	}
	centerLon := criteria.NearGeo.Coordinates[0]
	centerLat := criteria.NearGeo.Coordinates[1]

	const (
		MaxLocationPoints = 45.0
		VerifiedBonus     = 20.0
		MaxCompletedPts   = 20.0
		MaxRatingPts      = 15.0
	)

	computeLocationScore := func(distanceKm float64) float64 {
		if distanceKm >= searchRadiusKm {
			return 0
		}
		return MaxLocationPoints * (1 - distanceKm/searchRadiusKm)
	}
	computeCompletedScore := func(completed int) float64 {
		return math.Log10(float64(completed+1)) * MaxCompletedPts / math.Log10(101)
	}
	computeRatingScore := func(rating float64) float64 {
		if rating > 5 {
			rating = 5
		}
		return (rating / 5) * MaxRatingPts
	}

	type scoreData struct {
		Provider   models.Provider
		TotalScore float64
		DistanceKm float64
	}

	resultsCh := make(chan scoreData, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p models.Provider) {
			defer wg.Done()
			var provLat, provLon float64
			if len(p.LocationGeo.Coordinates) >= 2 {
				provLon = p.LocationGeo.Coordinates[0]
				provLat = p.LocationGeo.Coordinates[1]
			}
			distanceKm := haversine(centerLat, centerLon, provLat, provLon)
			total := computeLocationScore(distanceKm) + computeCompletedScore(p.CompletedBookings) + computeRatingScore(p.Rating)
			if p.Verified {
				total += VerifiedBonus
			}
			resultsCh <- scoreData{Provider: p, TotalScore: total, DistanceKm: distanceKm}
		}(p)
	}

	wg.Wait()
	close(resultsCh)

	var scores []scoreData
	for sd := range resultsCh {
		scores = append(scores, sd)
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})

	var ranked []RankedProvider
	for i, sd := range scores {
		ranked = append(ranked, RankedProvider{
			Provider:   sd.Provider,
			RankPoints: sd.TotalScore,
			Preferred:  i == 0,
			// Convert km to metres.
			Proximity: sd.DistanceKm * 1000,
		})
	}
	return ranked, nil
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371
	dLat := (lat2 - lat1) * (math.Pi / 180)
	dLon := (lon2 - lon1) * (math.Pi / 180)
	lat1Rad := lat1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

func extractProvidersDTO(ranked []RankedProvider) []models.ProviderDTO {
	var dtos []models.ProviderDTO
	for _, rp := range ranked {
		dtos = append(dtos, models.ProviderDTO{
			ID:        rp.Provider.ID,
			Name:      rp.Provider.Name,
			Rating:    rp.Provider.Rating,
			Verified:  rp.Provider.Verified,
			Preferred: rp.Preferred,
			Proximity: rp.Proximity,
		})
	}
	return dtos
}
