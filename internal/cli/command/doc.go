// Package command defines the sessgauge-server command line.
//
//	sessgauge-server [--config FILE] [--addr ADDR] [--log-level LEVEL]   run the server
//	sessgauge-server config check                                      validate configuration
//	sessgauge-server stats --server URL                                print session statistics
//	sessgauge-server version                                           print build information
//
// Commands are built with urfave/cli/v2.
package command
