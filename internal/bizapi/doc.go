// Package bizapi is a client for the business-license verification API.
//
// Client speaks the wire protocol: it obtains an OAuth access token with the
// client-credentials grant, paces requests with a token-bucket limiter, and
// posts form-encoded lookups. Service maps raw responses into BusinessLicense
// and Verification values and caches successful lookups.
package bizapi
