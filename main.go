package main

import (
	"github.com/wadesk/wadesk/cmd"
)

func main() {
	cmd.Execute()
}
