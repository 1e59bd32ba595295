// Command frameoctl is a command-line client for the Frameo control
// service. Every subcommand maps to one HTTP endpoint.
package main
