package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/oyakomap/spotfinder/internal/geo"
)

// envLocator reads the device position from the environment. A terminal
// has no positioning hardware, so deployments that know where they run
// export SPOTFINDER_DEVICE_LAT / SPOTFINDER_DEVICE_LNG.
type envLocator struct{}

var _ geo.Locator = envLocator{}

func (envLocator) Current(ctx context.Context, _ geo.AcquireOptions) (geo.Coordinate, error) {
	lat, latErr := strconv.ParseFloat(os.Getenv("SPOTFINDER_DEVICE_LAT"), 64)
	lng, lngErr := strconv.ParseFloat(os.Getenv("SPOTFINDER_DEVICE_LNG"), 64)
	if latErr != nil || lngErr != nil {
		return geo.Coordinate{}, fmt.Errorf("device position not configured (set SPOTFINDER_DEVICE_LAT and SPOTFINDER_DEVICE_LNG)")
	}
	return geo.Coordinate{Lat: lat, Lng: lng}, nil
}
