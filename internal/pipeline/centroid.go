// Shipmart - Order Feature Mart and Shipping Policy Simulation
// Copyright 2026 Freightlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/freightlab/shipmart

package pipeline

import "github.com/freightlab/shipmart/internal/models"

// ResolveCentroids collapses raw geolocation samples into one mean
// coordinate per zone key. No outlier rejection: noisy samples are part
// of the mean, which is accurate enough for banded distance features.
// A zone with no samples is simply absent; lookups against it resolve
// to null distance downstream, never to an error.
func ResolveCentroids(points []models.RawPoint) map[string]models.ZoneCentroid {
	type acc struct {
		lat, lng float64
		n        int
	}
	sums := make(map[string]*acc)
	for _, p := range points {
		a := sums[p.ZoneKey]
		if a == nil {
			a = &acc{}
			sums[p.ZoneKey] = a
		}
		a.lat += p.Latitude
		a.lng += p.Longitude
		a.n++
	}

	out := make(map[string]models.ZoneCentroid, len(sums))
	for key, a := range sums {
		out[key] = models.ZoneCentroid{
			ZoneKey:   key,
			Latitude:  a.lat / float64(a.n),
			Longitude: a.lng / float64(a.n),
		}
	}
	return out
}
