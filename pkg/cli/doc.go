// Package cli provides the launchpad command-line interface.
//
// # Commands
//
// price: Show plan prices, optionally with add-ons
//
//	launchpad price -cycle annual
//	launchpad price -plan builder -add-ons designer,marketer
//
// catalog: Print a built-in catalog as YAML, or validate a catalog file
//
//	launchpad catalog -catalog legacy > catalog.yaml
//	launchpad catalog -file catalog.yaml -validate
//
// token: Mint a development bearer token signed with $LAUNCHPAD_JWT_SECRET
//
//	export LAUNCHPAD_TOKEN=$(launchpad token -user 42)
//
// profile and buy-credits: Call a running server as the token holder
//
//	launchpad profile -server http://localhost:8080
//	launchpad buy-credits -pool document -quantity 10 -project 7
//
// Logs go to stderr through logrus; -verbose enables debug output.
package cli
