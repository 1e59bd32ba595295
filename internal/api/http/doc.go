// Package http contains the gin handlers for the Frameo control API.
package http
