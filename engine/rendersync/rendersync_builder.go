package rendersync

// SyncerBuilderOption is a functional option for configuring a Syncer.
// Use the With* functions to create options.
type SyncerBuilderOption func(s *syncer)

// WithCameraReset controls whether Sync reframes the camera. Enabled by default.
//
// Parameters:
//   - enabled: false keeps the camera where the user left it
//
// Returns:
//   - SyncerBuilderOption: option function to apply
func WithCameraReset(enabled bool) SyncerBuilderOption {
	return func(s *syncer) {
		s.resetCamera = enabled
	}
}

// WithCameraAngles sets the azimuth and elevation applied after a camera reset.
// Defaults to DefaultAzimuth and DefaultElevation.
//
// Parameters:
//   - azimuth, elevation: angles in degrees
//
// Returns:
//   - SyncerBuilderOption: option function to apply
func WithCameraAngles(azimuth, elevation float64) SyncerBuilderOption {
	return func(s *syncer) {
		s.azimuth = azimuth
		s.elevation = elevation
	}
}
