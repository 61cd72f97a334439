package main

import "github.com/devicelab-dev/appium-extension/pkg/cli"

func main() {
	cli.Execute()
}
