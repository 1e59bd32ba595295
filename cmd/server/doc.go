// Command server runs the Frameo control HTTP service.
package main
