package places

import "github.com/sidequest-dev/sidequest/pkg/activity"

// FallbackActivities returns generic placeholder activities near a
// coordinate, used when every search path came back empty. Coordinates that
// look like a real populated region (away from null island and the poles)
// get a couple of extra venue types.
func FallbackActivities(lat, lon float64) []activity.Activity {
	base := []activity.Activity{
		{
			Title:         "Local Restaurant",
			Lat:           lat + 0.001,
			Lon:           lon + 0.001,
			Type:          activity.Food,
			DurationHours: 1.5,
			Cost:          25,
			IndoorOutdoor: activity.Indoor,
			EnergyLevel:   3,
			Confidence:    0.3,
		},
		{
			Title:         "City Park",
			Lat:           lat + 0.002,
			Lon:           lon - 0.001,
			Type:          activity.Scenery,
			DurationHours: 2.0,
			Cost:          0,
			IndoorOutdoor: activity.Outdoor,
			EnergyLevel:   6,
			Confidence:    0.3,
		},
		{
			Title:         "Shopping Center",
			Lat:           lat - 0.001,
			Lon:           lon + 0.002,
			Type:          activity.Shopping,
			DurationHours: 2.0,
			Cost:          50,
			IndoorOutdoor: activity.Indoor,
			EnergyLevel:   5,
			Confidence:    0.3,
		},
	}

	if lat > 30 || lat < -30 || lon > 30 || lon < -30 {
		base = append(base,
			activity.Activity{
				Title:         "Museum",
				Lat:           lat + 0.003,
				Lon:           lon + 0.001,
				Type:          activity.Cultural,
				DurationHours: 2.5,
				Cost:          15,
				IndoorOutdoor: activity.Indoor,
				EnergyLevel:   4,
				Confidence:    0.3,
			},
			activity.Activity{
				Title:         "Entertainment Venue",
				Lat:           lat - 0.002,
				Lon:           lon - 0.002,
				Type:          activity.Entertainment,
				DurationHours: 2.0,
				Cost:          30,
				IndoorOutdoor: activity.Indoor,
				EnergyLevel:   5,
				Confidence:    0.3,
			},
		)
	}

	return base
}
