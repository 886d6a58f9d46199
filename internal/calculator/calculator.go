package calculator

import (
	"open-pubs/internal/models"
	"runtime"
	"sort"
	"sync"
)

// parallelThreshold is the dataset size below which a scan stays on the
// calling goroutine.
const parallelThreshold = 4096

// scanDistances computes the distance from every pub to the query point into a
// fresh slice aligned with pubs. Workers own disjoint index ranges.
func scanDistances(pubs []models.Pub, from models.Coordinate) []float64 {
	total := len(pubs)
	dists := make([]float64, total)
	if total == 0 {
		return dists
	}

	numCPU := runtime.NumCPU()
	if numCPU < 1 || total < parallelThreshold {
		numCPU = 1
	}
	chunkSize := (total + numCPU - 1) / numCPU

	var wg sync.WaitGroup
	for i := 0; i < numCPU; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if start >= total {
			break
		}
		if end > total {
			end = total
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for idx := s; idx < e; idx++ {
				dists[idx] = Distance(from, pubs[idx].Loc)
			}
		}(start, end)
	}
	wg.Wait()

	return dists
}

// rank orders the selected rows by distance. The sort is stable, so equal
// distances keep dataset order.
func rank(pubs []models.Pub, dists []float64, keep func(d float64) bool) []models.Neighbor {
	out := make([]models.Neighbor, 0, len(pubs))
	for i, p := range pubs {
		if keep != nil && !keep(dists[i]) {
			continue
		}
		out = append(out, models.Neighbor{Pub: p, DistanceKm: dists[i]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// ComputeNearest returns the n pubs closest to from, nearest first.
// A full scan is done on every call; nothing is cached between calls.
func ComputeNearest(pubs []models.Pub, from models.Coordinate, n int) []models.Neighbor {
	if n <= 0 || len(pubs) == 0 {
		return []models.Neighbor{}
	}

	ranked := rank(pubs, scanDistances(pubs, from), nil)
	if n < len(ranked) {
		ranked = append([]models.Neighbor(nil), ranked[:n]...)
	}
	return ranked
}

// ComputeRadius returns every pub within radiusKm of from, nearest first.
func ComputeRadius(pubs []models.Pub, from models.Coordinate, radiusKm float64) []models.Neighbor {
	if len(pubs) == 0 {
		return []models.Neighbor{}
	}

	return rank(pubs, scanDistances(pubs, from), func(d float64) bool {
		return d <= radiusKm
	})
}
