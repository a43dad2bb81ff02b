// File: utils/constants.go
package utils

import "time"

// RequestIDKey is the gin context key holding the per-request id.
const RequestIDKey = "requestId"

// RequestIDHeader carries the request id in and out of the service.
const RequestIDHeader = "X-Request-ID"

// HealthCheckInterval is how often backing services are pinged.
const HealthCheckInterval = 60 * time.Second
