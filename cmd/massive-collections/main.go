// Command massive-collections manages connection credentials, creates
// tables and runs queries and collection finds from the shell.
package main

import "github.com/aluzed/massive-collections/internal/cli"

func main() {
	cli.Execute()
}
