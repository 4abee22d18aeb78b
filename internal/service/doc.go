// Package service runs the warpvpn daemon under the Windows Service Control
// Manager. On other platforms it is empty.
package service
