package application

import "expvar"

// Counters published under /api/debug/vars.
var (
	mRegistrations   = expvar.NewInt("users_registered_total")
	mLoginSuccess    = expvar.NewInt("logins_success_total")
	mLoginFailure    = expvar.NewInt("logins_failure_total")
	mRefreshRotated  = expvar.NewInt("refresh_rotations_total")
	mRefreshRejected = expvar.NewInt("refresh_rejections_total")
	mUploadFailures  = expvar.NewInt("media_upload_failures_total")
)
