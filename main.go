package main

import "github.com/nixxel-company-limited/tspl-label-printer/cmd"

func main() {
	cmd.Execute()
}
