package main

import "github.com/llehouerou/lessongate/internal/cli"

func main() {
	cli.Execute()
}
