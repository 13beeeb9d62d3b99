package main

import "github.com/vietddude/marketwatch/internal/cli"

func main() {
	cli.Execute()
}
