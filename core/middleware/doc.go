// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - RayID: assigns every incoming request a unique id (RayID), stores it in
//     the Fiber locals and echoes it in the X-Ray-ID response header so logs
//     can be correlated with logger.WithRayID.
package middleware
