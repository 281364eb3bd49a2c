package main

import "github.com/sap-gg/commaslash/cmd"

func main() {
	cmd.Execute()
}
